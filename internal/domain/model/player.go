// Package model contains the catalog records shared between layers.
package model

import "github.com/okian/swingiq/internal/domain/plan"

// Player is a catalog entry for one hitter.
type Player struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Position    string       `json:"position" yaml:"position"`
	Team        string       `json:"team" yaml:"team"`
	Level       string       `json:"level" yaml:"level"` // e.g. "HS", "NCAA D1", "AA"
	Bats        string       `json:"bats" yaml:"bats"`
	Throws      string       `json:"throws" yaml:"throws"`
	GroupID     string       `json:"group_id" yaml:"group_id"`
	Metrics     plan.Metrics `json:"metrics" yaml:"metrics"`
	AttackAngle float64      `json:"attack_angle" yaml:"attack_angle"` // degrees
	LaunchAngle float64      `json:"launch_angle" yaml:"launch_angle"` // degrees
	HardHitRate float64      `json:"hard_hit_rate" yaml:"hard_hit_rate"` // share of balls at 95+ mph
}

// GroupKind distinguishes the persona a group belongs to.
type GroupKind string

// Group kinds.
const (
	GroupTeam       GroupKind = "team"        // coaches
	GroupRoster     GroupKind = "roster"      // scouts' follow lists
	GroupClientList GroupKind = "client-list" // agents
)

// Group is a named set of players.
type Group struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Kind      GroupKind `json:"kind" yaml:"kind"`
	PlayerIDs []string  `json:"player_ids" yaml:"player_ids"`
}

// Session summarizes one recorded hitting session.
type Session struct {
	ID              string  `json:"id" yaml:"id"`
	PlayerID        string  `json:"player_id" yaml:"player_id"`
	Date            string  `json:"date" yaml:"date"`
	Kind            string  `json:"kind" yaml:"kind"` // "cage", "bp", "live"
	Swings          int     `json:"swings" yaml:"swings"`
	AvgExitVelocity float64 `json:"avg_exit_velocity" yaml:"avg_exit_velocity"`
	MaxExitVelocity float64 `json:"max_exit_velocity" yaml:"max_exit_velocity"`
	AvgBatSpeed     float64 `json:"avg_bat_speed" yaml:"avg_bat_speed"`
}

// Listing is an entry in the partner ecosystem directory.
type Listing struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
}
