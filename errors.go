package hibiki

import (
	"errors"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Sentinel errors returned by Engine operations. Check with errors.Is:
// ErrValidation matches every validation failure, including the transition
// and snapshot-ordering specializations.
var (
	ErrValidation         = model.ErrValidation
	ErrInvalidTransition  = model.ErrInvalidTransition
	ErrOutOfOrderSnapshot = model.ErrOutOfOrderSnapshot

	// ErrNotFound is returned when a block or suggestion ID is unknown.
	ErrNotFound = errors.New("hibiki: not found")
)
