// Package repository holds the read-only catalog and the in-memory plan
// workspace.
package repository

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/okian/swingiq/internal/domain/model"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// catalogFile is the YAML document layout.
type catalogFile struct {
	Players  []model.Player  `yaml:"players"`
	Groups   []model.Group   `yaml:"groups"`
	Sessions []model.Session `yaml:"sessions"`
	Listings []model.Listing `yaml:"listings"`
}

// Catalog is static configuration loaded once at start. It is never
// mutated after LoadCatalog returns, so it is safe for concurrent reads.
// Every accessor returns copies.
type Catalog struct {
	players  []model.Player
	byID     map[string]int
	groups   []model.Group
	groupIdx map[string]int
	sessions map[string][]model.Session
	listings []model.Listing
}

// LoadCatalog reads the catalog at path, or the embedded demo catalog when
// path is empty.
func LoadCatalog(_ context.Context, path string) (*Catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		raw = b
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return newCatalog(f)
}

func newCatalog(f catalogFile) (*Catalog, error) {
	c := &Catalog{
		players:  f.Players,
		byID:     make(map[string]int, len(f.Players)),
		groups:   f.Groups,
		groupIdx: make(map[string]int, len(f.Groups)),
		sessions: make(map[string][]model.Session),
		listings: f.Listings,
	}

	for i, p := range f.Players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player id %q", ErrInvalidCatalog, p.ID)
		}
		if !p.Metrics.Encodable() || !finite(p.AttackAngle, p.LaunchAngle, p.HardHitRate) {
			return nil, fmt.Errorf("%w: player %q has out of range metrics", ErrInvalidCatalog, p.ID)
		}
		c.byID[p.ID] = i
	}

	for i, g := range f.Groups {
		if _, dup := c.groupIdx[g.ID]; dup || g.ID == "" {
			return nil, fmt.Errorf("%w: bad or duplicate group id %q", ErrInvalidCatalog, g.ID)
		}
		for _, pid := range g.PlayerIDs {
			if _, ok := c.byID[pid]; !ok {
				return nil, fmt.Errorf("%w: group %q lists unknown player %q", ErrInvalidCatalog, g.ID, pid)
			}
		}
		c.groupIdx[g.ID] = i
	}

	for _, p := range f.Players {
		if p.GroupID == "" {
			continue
		}
		if _, ok := c.groupIdx[p.GroupID]; !ok {
			return nil, fmt.Errorf("%w: player %q references unknown group %q", ErrInvalidCatalog, p.ID, p.GroupID)
		}
	}

	sessionIDs := make(map[string]struct{}, len(f.Sessions))
	for _, s := range f.Sessions {
		if _, dup := sessionIDs[s.ID]; dup || s.ID == "" {
			return nil, fmt.Errorf("%w: bad or duplicate session id %q", ErrInvalidCatalog, s.ID)
		}
		sessionIDs[s.ID] = struct{}{}
		if !finite(s.AvgExitVelocity, s.MaxExitVelocity, s.AvgBatSpeed) {
			return nil, fmt.Errorf("%w: session %q has non-finite metrics", ErrInvalidCatalog, s.ID)
		}
		if _, ok := c.byID[s.PlayerID]; !ok {
			return nil, fmt.Errorf("%w: session %q references unknown player %q", ErrInvalidCatalog, s.ID, s.PlayerID)
		}
		c.sessions[s.PlayerID] = append(c.sessions[s.PlayerID], s)
	}
	listingIDs := make(map[string]struct{}, len(f.Listings))
	for _, l := range f.Listings {
		if _, dup := listingIDs[l.ID]; dup || l.ID == "" {
			return nil, fmt.Errorf("%w: bad or duplicate listing id %q", ErrInvalidCatalog, l.ID)
		}
		listingIDs[l.ID] = struct{}{}
	}

	for pid := range c.sessions {
		ss := c.sessions[pid]
		sort.SliceStable(ss, func(i, j int) bool { return ss[i].Date > ss[j].Date })
	}

	return c, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Player returns the player with id.
func (c *Catalog) Player(_ context.Context, id string) (model.Player, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %q: %w", id, ErrNotFound)
	}
	return c.players[i], nil
}

// Players returns every player, or only the members of groupID when it is
// not empty.
func (c *Catalog) Players(ctx context.Context, groupID string) ([]model.Player, error) {
	if groupID == "" {
		return append([]model.Player(nil), c.players...), nil
	}
	g, err := c.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Player, 0, len(g.PlayerIDs))
	for _, pid := range g.PlayerIDs {
		out = append(out, c.players[c.byID[pid]])
	}
	return out, nil
}

// Group returns the group with id.
func (c *Catalog) Group(_ context.Context, id string) (model.Group, error) {
	i, ok := c.groupIdx[id]
	if !ok {
		return model.Group{}, fmt.Errorf("group %q: %w", id, ErrNotFound)
	}
	g := c.groups[i]
	g.PlayerIDs = append([]string(nil), g.PlayerIDs...)
	return g, nil
}

// Groups returns every group.
func (c *Catalog) Groups(_ context.Context) []model.Group {
	out := make([]model.Group, len(c.groups))
	for i, g := range c.groups {
		g.PlayerIDs = append([]string(nil), g.PlayerIDs...)
		out[i] = g
	}
	return out
}

// Sessions returns a player's sessions, newest first.
func (c *Catalog) Sessions(_ context.Context, playerID string) ([]model.Session, error) {
	if _, ok := c.byID[playerID]; !ok {
		return nil, fmt.Errorf("player %q: %w", playerID, ErrNotFound)
	}
	return append([]model.Session{}, c.sessions[playerID]...), nil
}

// Listings returns ecosystem listings, optionally filtered by category.
func (c *Catalog) Listings(_ context.Context, category string) []model.Listing {
	out := make([]model.Listing, 0, len(c.listings))
	for _, l := range c.listings {
		if category == "" || l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

// Counts reports catalog sizes by entity kind.
func (c *Catalog) Counts() map[string]int {
	sessions := 0
	for _, ss := range c.sessions {
		sessions += len(ss)
	}
	return map[string]int{
		"players":  len(c.players),
		"groups":   len(c.groups),
		"sessions": sessions,
		"listings": len(c.listings),
	}
}
