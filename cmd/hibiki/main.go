package main

import "github.com/hibiki-app/hibiki/internal/cli"

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.Execute(version)
}
