package model

// EnergySample is a single observation of user energy for an
// (hour-of-day, day-of-week) bucket. Samples are ephemeral: they are folded
// into the profile on record and never retained individually.
type EnergySample struct {
	Hour  int `json:"hour"`  // 0-23
	Day   int `json:"day"`   // 0-6, Sunday = 0 (matches time.Weekday)
	Level int `json:"level"` // 0-10
}

// Validate checks the sample against its bucket and scale bounds.
func (s EnergySample) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return Invalidf("hour", "must be in [0,23], got %d", s.Hour)
	}
	if s.Day < 0 || s.Day > 6 {
		return Invalidf("day", "must be in [0,6], got %d", s.Day)
	}
	if s.Level < 0 || s.Level > 10 {
		return Invalidf("level", "must be in [0,10], got %d", s.Level)
	}
	return nil
}

// Bucket identifies one (hour, day) cell of the energy profile.
type Bucket struct {
	Hour int `json:"hour"`
	Day  int `json:"day"`
}

// EnergyProfile is the learned aggregate for one bucket.
// Average is the arithmetic mean of every sample ever folded in.
type EnergyProfile struct {
	Average    float64 `json:"average"`
	SampleSize int     `json:"sample_size"`
}

// NeutralEnergy is the cold-start average for buckets with no samples:
// the midpoint of the 0-10 scale.
const NeutralEnergy = 5.0
