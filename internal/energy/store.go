// Package energy maintains the learned energy profile: per
// (hour-of-day, day-of-week) bucket averages of recorded energy samples.
// Buckets are created lazily on first sample and never deleted.
package energy

import (
	"sort"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Store aggregates energy samples into per-bucket running means.
// It holds no clock and performs no I/O; callers serialize access.
type Store struct {
	buckets map[model.Bucket]model.EnergyProfile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{buckets: make(map[model.Bucket]model.EnergyProfile)}
}

// Restore creates a store from previously persisted profiles.
// The input map is copied; the caller keeps ownership of its argument.
func Restore(profiles map[model.Bucket]model.EnergyProfile) *Store {
	s := NewStore()
	for b, p := range profiles {
		s.buckets[b] = p
	}
	return s
}

// RecordSample folds one sample into its bucket using the incremental mean:
//
//	average' = average + (level - average) / (n + 1)
//
// which is arithmetically identical to recomputing the batch mean over every
// sample ever recorded for the bucket, independent of arrival order.
func (s *Store) RecordSample(sample model.EnergySample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	key := model.Bucket{Hour: sample.Hour, Day: sample.Day}
	p := s.buckets[key]
	p.Average += (float64(sample.Level) - p.Average) / float64(p.SampleSize+1)
	p.SampleSize++
	s.buckets[key] = p
	return nil
}

// Profile returns the learned profile for a bucket. Buckets with no samples
// return the neutral cold-start default rather than an error, so the engine
// stays usable from day one.
func (s *Store) Profile(hour, day int) model.EnergyProfile {
	if p, ok := s.buckets[model.Bucket{Hour: hour, Day: day}]; ok {
		return p
	}
	return model.EnergyProfile{Average: model.NeutralEnergy, SampleSize: 0}
}

// PeakWindow is one sampled bucket ranked by average energy.
type PeakWindow struct {
	Bucket     model.Bucket
	Average    float64
	SampleSize int
}

// PeakWindows returns up to topN sampled buckets ordered by average
// descending. Ties break by ascending hour, then ascending day, so the
// ordering is deterministic across runs.
func (s *Store) PeakWindows(topN int) []PeakWindow {
	if topN <= 0 {
		return nil
	}
	windows := make([]PeakWindow, 0, len(s.buckets))
	for b, p := range s.buckets {
		if p.SampleSize == 0 {
			continue
		}
		windows = append(windows, PeakWindow{Bucket: b, Average: p.Average, SampleSize: p.SampleSize})
	}
	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Average != windows[j].Average {
			return windows[i].Average > windows[j].Average
		}
		if windows[i].Bucket.Hour != windows[j].Bucket.Hour {
			return windows[i].Bucket.Hour < windows[j].Bucket.Hour
		}
		return windows[i].Bucket.Day < windows[j].Bucket.Day
	})
	if len(windows) > topN {
		windows = windows[:topN]
	}
	return windows
}

// Snapshot returns a copy of all buckets for persistence.
func (s *Store) Snapshot() map[model.Bucket]model.EnergyProfile {
	out := make(map[model.Bucket]model.EnergyProfile, len(s.buckets))
	for b, p := range s.buckets {
		out[b] = p
	}
	return out
}
