// Package service wires the catalog, plan workspace, note deduper and
// re-analysis workers into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	analysisqueue "github.com/okian/swingiq/internal/adapters/mq/queue"
	workerpool "github.com/okian/swingiq/internal/adapters/mq/worker"
	"github.com/okian/swingiq/internal/adapters/repository"
	"github.com/okian/swingiq/internal/domain/dedupe"
	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
	"github.com/okian/swingiq/pkg/logger"
	"github.com/okian/swingiq/pkg/metrics"
)

// Plan generation triggers, used as metric labels.
const (
	TriggerInitial = "initial"
	TriggerManual  = "manual"
	TriggerPreview = "preview"
)

const (
	dateLayout      = "2006-01-02"
	shutdownTimeout = 10 * time.Second
)

// noteNamespace scopes idempotency-derived note ids.
var noteNamespace = uuid.MustParse("8f1b6c1e-4f0a-4c55-9a43-5b0f7f3d2a61") //nolint:gochecknoglobals // fixed namespace

// Service implements the API dependencies for the plan dashboard.
type Service struct {
	mu sync.RWMutex
	// initMu serializes first-time plan generation per service.
	initMu sync.Mutex
	// noteKeys serializes notes sharing an idempotency key, so a duplicate
	// is only acknowledged once the first note is stored.
	noteKeys keyedMutex

	catalog *repository.Catalog
	plans   repository.PlanStore
	deduper dedupe.Deduper
	queue   analysisqueue.Queue
	pool    *workerpool.Pool

	catalogPath   string
	workerCount   int
	queueSize     int
	dedupeSize    int
	analysisDelay time.Duration
	maxNoteLength int
	defaultAuthor string
	now           func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of re-analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending re-analysis requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many note idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAnalysisDelay sets the simulated re-analysis time.
func WithAnalysisDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.analysisDelay = d
		}
	}
}

// WithMaxNoteLength caps note text, in characters.
func WithMaxNoteLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNoteLength = n
		}
	}
}

// WithDefaultAuthor sets the author used when a note has none.
func WithDefaultAuthor(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultAuthor = name
		}
	}
}

// WithCatalogPath loads the catalog from a YAML file instead of the
// embedded demo catalog.
func WithCatalogPath(path string) Option {
	return func(s *Service) {
		s.catalogPath = path
	}
}

// WithCatalog uses an already loaded catalog.
func WithCatalog(c *repository.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock overrides time.Now. Note dates are taken from it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   2,
		queueSize:     256,
		dedupeSize:    10_000,
		analysisDelay: 800 * time.Millisecond,
		maxNoteLength: 2000,
		defaultAuthor: "Coach",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the catalog and starts the re-analysis workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting plan service...")

	if s.catalog == nil {
		c, err := repository.LoadCatalog(ctx, s.catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		s.catalog = c
	}
	for kind, n := range s.catalog.Counts() {
		metrics.UpdateCatalogEntries(kind, n)
	}

	s.plans = repository.NewMemoryPlanStore(repository.WithOnChange(metrics.UpdateWorkspacePlans))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	q := analysisqueue.NewInMemoryQueue(analysisqueue.WithCapacity(s.queueSize))
	s.queue = q
	s.pool = workerpool.NewPool(s.workerCount, q, s.catalog, s.plans,
		workerpool.WithDelay(s.analysisDelay),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "plan service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("analysisDelay", s.analysisDelay),
		logger.Any("catalog", s.catalog.Counts()),
	)
	return nil
}

// Stop gracefully shuts down the workers. Pending requests are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping plan service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "plan service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Players lists catalog players, optionally limited to one group.
func (s *Service) Players(ctx context.Context, groupID string) ([]model.Player, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Players(ctx, groupID)
}

// Player returns one catalog player.
func (s *Service) Player(ctx context.Context, id string) (model.Player, error) {
	if err := s.ready(); err != nil {
		return model.Player{}, err
	}
	return s.catalog.Player(ctx, id)
}

// Sessions returns a player's recorded sessions, newest first.
func (s *Service) Sessions(ctx context.Context, playerID string) ([]model.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Sessions(ctx, playerID)
}

// Groups lists every team, roster and client list.
func (s *Service) Groups(ctx context.Context) ([]model.Group, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Groups(ctx), nil
}

// Group returns one group.
func (s *Service) Group(ctx context.Context, id string) (model.Group, error) {
	if err := s.ready(); err != nil {
		return model.Group{}, err
	}
	return s.catalog.Group(ctx, id)
}

// Listings returns ecosystem listings, optionally filtered by category.
func (s *Service) Listings(ctx context.Context, category string) ([]model.Listing, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.catalog.Listings(ctx, category), nil
}

// Plan returns the player's current plan, generating it on first access.
func (s *Service) Plan(ctx context.Context, playerID string) (types.PlanView, error) {
	if err := s.ready(); err != nil {
		return types.PlanView{}, err
	}
	p, err := s.catalog.Player(ctx, playerID)
	if err != nil {
		return types.PlanView{}, err
	}
	current, err := s.currentPlan(ctx, p)
	if err != nil {
		return types.PlanView{}, err
	}
	return types.NewPlanView(p.ID, plan.Assess(p.Metrics), current, s.queue.Pending(p.ID)), nil
}

// currentPlan returns the stored plan, generating and storing one if the
// workspace has none yet.
func (s *Service) currentPlan(ctx context.Context, p model.Player) (plan.Plan, error) {
	current, err := s.plans.Get(ctx, p.ID)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, repository.ErrNoPlan) {
		return plan.Plan{}, err
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()
	if current, err = s.plans.Get(ctx, p.ID); err == nil {
		return current, nil
	}
	current = s.generate(p, TriggerInitial)
	if err := s.plans.Replace(ctx, p.ID, current); err != nil {
		return plan.Plan{}, fmt.Errorf("store plan for %s: %w", p.ID, err)
	}
	return current, nil
}

func (s *Service) generate(p model.Player, trigger string) plan.Plan {
	generated := plan.Generate(p.ID, p.Metrics)
	metrics.RecordPlanGenerated(trigger, generated.GoalStatuses()...)
	return generated
}

// Reanalyze regenerates the plan inline, replacing the stored one and
// dropping any notes added since.
func (s *Service) Reanalyze(ctx context.Context, playerID string) (types.PlanView, error) {
	if err := s.ready(); err != nil {
		return types.PlanView{}, err
	}
	p, err := s.catalog.Player(ctx, playerID)
	if err != nil {
		return types.PlanView{}, err
	}
	generated := s.generate(p, TriggerManual)
	if err := s.plans.Replace(ctx, p.ID, generated); err != nil {
		return types.PlanView{}, fmt.Errorf("store plan for %s: %w", p.ID, err)
	}
	s.logger.Info(ctx, "plan regenerated",
		logger.String("player_id", p.ID),
		logger.Int("goals", len(generated.Goals)),
	)
	return types.NewPlanView(p.ID, plan.Assess(p.Metrics), generated, s.queue.Pending(p.ID)), nil
}

// RequestReanalysis queues a background regeneration. A request for a
// player that already has one pending is merged into it.
func (s *Service) RequestReanalysis(ctx context.Context, playerID string) (types.AnalysisAck, error) {
	if err := s.ready(); err != nil {
		return types.AnalysisAck{}, err
	}
	p, err := s.catalog.Player(ctx, playerID)
	if err != nil {
		return types.AnalysisAck{}, err
	}
	if _, err := s.currentPlan(ctx, p); err != nil {
		return types.AnalysisAck{}, err
	}

	coalesced, err := s.queue.TryEnqueue(ctx, analysisqueue.AnalysisRequest{PlayerID: p.ID, RequestedAt: s.now()})
	switch {
	case errors.Is(err, analysisqueue.ErrFull):
		s.logger.Warn(ctx, "re-analysis rejected", logger.String("player_id", p.ID), logger.Error(err))
		return types.AnalysisAck{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	case errors.Is(err, analysisqueue.ErrClosed):
		return types.AnalysisAck{}, ErrNotStarted
	case err != nil:
		return types.AnalysisAck{}, err
	}

	status := "queued"
	if coalesced {
		status = "pending"
	}
	return types.AnalysisAck{PlayerID: p.ID, Status: status}, nil
}

// AddNote prepends a coaching note to the player's plan. A repeated
// idempotency key is acknowledged as a duplicate without adding again.
func (s *Service) AddNote(ctx context.Context, playerID string, in types.NoteInput) (types.NoteAck, error) {
	if err := s.ready(); err != nil {
		return types.NoteAck{}, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return types.NoteAck{}, fmt.Errorf("%w: text is required", ErrInvalidNote)
	}
	if utf8.RuneCountInString(text) > s.maxNoteLength {
		return types.NoteAck{}, fmt.Errorf("%w: text longer than %d characters", ErrInvalidNote, s.maxNoteLength)
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = s.defaultAuthor
	}

	p, err := s.catalog.Player(ctx, playerID)
	if err != nil {
		return types.NoteAck{}, err
	}
	if _, err := s.currentPlan(ctx, p); err != nil {
		return types.NoteAck{}, err
	}

	note := plan.Note{
		ID:     uuid.NewString(),
		Date:   s.now().Format(dateLayout),
		Author: author,
		Text:   text,
	}

	var dedupeKey string
	if in.IdempotencyKey != "" {
		dedupeKey = p.ID + ":" + in.IdempotencyKey
		note.ID = uuid.NewSHA1(noteNamespace, []byte(dedupeKey)).String()
		unlock := s.noteKeys.lock(dedupeKey)
		defer unlock()
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordNoteDuplicate()
			s.logger.Debug(ctx, "duplicate note ignored",
				logger.String("player_id", p.ID),
				logger.String("idempotency_key", in.IdempotencyKey),
			)
			return types.NoteAck{Note: plan.Note{ID: note.ID}, Duplicate: true}, nil
		}
	}

	if _, err := s.plans.PrependNote(ctx, p.ID, note); err != nil {
		if dedupeKey != "" {
			s.deduper.Unrecord(ctx, dedupeKey)
		}
		return types.NoteAck{}, fmt.Errorf("add note for %s: %w", p.ID, err)
	}
	metrics.RecordNoteAdded()
	return types.NoteAck{Note: note}, nil
}

// keyedMutex hands out one mutex per key and forgets it once no caller
// holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Preview generates a plan from raw metrics without touching the
// workspace.
func (s *Service) Preview(_ context.Context, m plan.Metrics) types.PlanView {
	generated := plan.Generate("", m)
	metrics.RecordPlanGenerated(TriggerPreview, generated.GoalStatuses()...)
	return types.NewPlanView("", plan.Assess(m), generated, false)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"analysisDelay": s.analysisDelay.String(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["workspacePlans"] = s.plans.Count(ctx)
		stats["idempotencyKeys"] = s.deduper.Size()
		stats["catalog"] = s.catalog.Counts()
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
