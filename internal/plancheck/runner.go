package plancheck

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/pkg/logger"
)

const (
	checkAuthor = "plan-check"
	minWorkers  = 1
)

// Run checks every listed player's plan against local generation and, when
// enabled, exercises notes and re-analysis on the first player.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("plancheck")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting plan check",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("group", cfg.Group),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("notes", cfg.Notes),
		logger.Bool("reanalysis", cfg.Reanalysis))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("health check: %w", err)
	}

	players, err := client.Players(ctx, cfg.Group)
	if err != nil {
		return stats, fmt.Errorf("list players: %w", err)
	}
	stats.PlayersListed = len(players)
	if len(players) == 0 {
		return stats, ErrNoPlayers
	}

	// Exercises go first so the plan comparison also covers the
	// regenerated plan.
	if cfg.Notes {
		if err := exerciseNotes(ctx, client, players[0].ID); err != nil {
			return stats, err
		}
		stats.NotesChecked = true
	}
	if cfg.Reanalysis {
		if err := exerciseReanalysis(ctx, client, players[0]); err != nil {
			return stats, err
		}
		stats.ReanalysisDone = true
	}

	checkPlans(ctx, log, client, cfg, players, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.FetchFailures > 0 {
		return stats, fmt.Errorf("%d plan fetches failed", stats.FetchFailures)
	}
	if len(stats.Mismatches) > 0 {
		return stats, fmt.Errorf("%w: %d differences", ErrMismatch, len(stats.Mismatches))
	}
	return stats, nil
}

// checkPlans fetches and compares plans with a fixed pool of workers.
func checkPlans(ctx context.Context, log logger.Logger, client *Client, cfg *Config, players []model.Player, stats *Stats) {
	workers := max(cfg.Workers, minWorkers)
	jobs := make(chan model.Player, workers*2)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				view, err := client.Plan(ctx, p.ID)
				mu.Lock()
				stats.PlansChecked++
				if err != nil {
					stats.FetchFailures++
					mu.Unlock()
					log.Warn(ctx, "plan fetch failed", logger.String("player", p.ID), logger.Error(err))
					continue
				}
				diffs := Compare(p, view)
				if len(diffs) == 0 {
					stats.PlansMatched++
				}
				stats.Mismatches = append(stats.Mismatches, diffs...)
				mu.Unlock()

				for _, d := range diffs {
					log.Warn(ctx, "plan mismatch",
						logger.String("player", d.PlayerID),
						logger.String("field", d.Field),
						logger.String("served", d.Served),
						logger.String("local", d.Local))
				}
				if len(diffs) > 0 && cfg.Verbose {
					if text, err := Diff(p, view); err == nil {
						log.Info(ctx, "plan diff", logger.String("player", p.ID), logger.String("diff", text))
					}
				}
				if cfg.Verbose && len(diffs) == 0 {
					log.Info(ctx, "plan matches", logger.String("player", p.ID), logger.Int("goals", len(view.Goals)))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range players {
			select {
			case <-ctx.Done():
				return
			case jobs <- p:
			}
		}
	}()

	wg.Wait()
}

// exerciseNotes posts a keyed note twice and expects one insert, one
// duplicate and the note at the head of the plan.
func exerciseNotes(ctx context.Context, client *Client, playerID string) error {
	key := uuid.NewString()
	text := "plan-check " + key

	first, status, err := client.AddNote(ctx, playerID, checkAuthor, text, key)
	if err != nil {
		return fmt.Errorf("%w: add note: %w", ErrExercise, err)
	}
	if first.Duplicate || status != http.StatusCreated {
		return fmt.Errorf("%w: first note answered %d duplicate=%t", ErrExercise, status, first.Duplicate)
	}

	second, status, err := client.AddNote(ctx, playerID, checkAuthor, text, key)
	if err != nil {
		return fmt.Errorf("%w: repeat note: %w", ErrExercise, err)
	}
	if !second.Duplicate || status != http.StatusOK || second.Note.ID != first.Note.ID {
		return fmt.Errorf("%w: repeat note answered %d duplicate=%t id=%s", ErrExercise, status, second.Duplicate, second.Note.ID)
	}

	view, err := client.Plan(ctx, playerID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExercise, err)
	}
	if len(view.Notes) == 0 || view.Notes[0].ID != first.Note.ID {
		return fmt.Errorf("%w: note %s is not first in the plan", ErrExercise, first.Note.ID)
	}
	for _, n := range view.Notes[1:] {
		if n.ID == first.Note.ID {
			return fmt.Errorf("%w: note %s stored twice", ErrExercise, first.Note.ID)
		}
	}
	return nil
}

// exerciseReanalysis regenerates a plan synchronously and expects it to
// match local generation with only the seed notes left.
func exerciseReanalysis(ctx context.Context, client *Client, p model.Player) error {
	view, err := client.Reanalyze(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("%w: reanalyze: %w", ErrExercise, err)
	}
	if diffs := Compare(p, view); len(diffs) > 0 {
		return fmt.Errorf("%w: re-analysis of %s differs in %s", ErrExercise, p.ID, diffs[0].Field)
	}
	if !seedNotes(view.Notes) {
		return fmt.Errorf("%w: re-analysis of %s kept workspace notes", ErrExercise, p.ID)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("playersListed", stats.PlayersListed),
		logger.Int("plansChecked", stats.PlansChecked),
		logger.Int("plansMatched", stats.PlansMatched),
		logger.Int("fetchFailures", stats.FetchFailures),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Bool("notesChecked", stats.NotesChecked),
		logger.Bool("reanalysisDone", stats.ReanalysisDone),
		logger.Duration("duration", stats.Duration))
}
