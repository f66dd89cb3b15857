// Package plancheck verifies a running SwingIQ server end to end: every
// served plan must match what the generator produces locally for the
// same catalog metrics.
package plancheck

import (
	"errors"
	"time"
)

// Errors returned by Run.
var (
	ErrUnhealthy = errors.New("service is not healthy")
	ErrMismatch  = errors.New("served plans do not match local generation")
	ErrExercise  = errors.New("workspace exercise failed")
	ErrNoPlayers = errors.New("no players to check")
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Group      string        // Optional group filter for the player list
	Workers    int           // Concurrent plan fetchers
	Timeout    time.Duration // HTTP request timeout
	Notes      bool          // Exercise note prepend and idempotency
	Reanalysis bool          // Exercise synchronous re-analysis
	Verbose    bool
}

// Mismatch describes one difference between a served and a local plan.
type Mismatch struct {
	PlayerID string `json:"player_id"`
	Field    string `json:"field"`
	Served   string `json:"served"`
	Local    string `json:"local"`
}

// Stats holds run statistics.
type Stats struct {
	PlayersListed  int
	PlansChecked   int
	PlansMatched   int
	FetchFailures  int
	Mismatches     []Mismatch
	NotesChecked   bool
	ReanalysisDone bool
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
