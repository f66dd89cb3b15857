package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/swingiq/internal/adapters/mq/queue"
	"github.com/okian/swingiq/internal/adapters/mq/worker"
	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/plan"
	logging "github.com/okian/swingiq/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch        chan queue.AnalysisRequest
	closeOnce sync.Once
	mu        sync.Mutex
	done      map[string]int
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		ch:   make(chan queue.AnalysisRequest, 128),
		done: make(map[string]int),
	}
}

func (q *mockQueue) Dequeue(context.Context) <-chan queue.AnalysisRequest { return q.ch }

func (q *mockQueue) Done(playerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.done[playerID]++
}

func (q *mockQueue) Close() error {
	q.closeOnce.Do(func() { close(q.ch) })
	return nil
}

func (q *mockQueue) doneCount(playerID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done[playerID]
}

func (q *mockQueue) add(playerID string) {
	q.ch <- queue.AnalysisRequest{PlayerID: playerID, RequestedAt: time.Now()}
}

type mockPlayers struct {
	mu      sync.RWMutex
	players map[string]model.Player
}

func newMockPlayers() *mockPlayers {
	return &mockPlayers{players: make(map[string]model.Player)}
}

func (m *mockPlayers) set(id string, metrics plan.Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[id] = model.Player{ID: id, Metrics: metrics}
}

func (m *mockPlayers) Player(_ context.Context, id string) (model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return model.Player{}, errors.New("unknown player")
	}
	return p, nil
}

type mockUpdater struct {
	mu    sync.RWMutex
	plans map[string]plan.Plan
	fail  map[string]error
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{plans: make(map[string]plan.Plan), fail: make(map[string]error)}
}

func (u *mockUpdater) Replace(_ context.Context, playerID string, p plan.Plan) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err, ok := u.fail[playerID]; ok {
		return err
	}
	u.plans[playerID] = p
	return nil
}

func (u *mockUpdater) setError(playerID string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.fail[playerID] = err
}

func (u *mockUpdater) get(playerID string) (plan.Plan, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	p, ok := u.plans[playerID]
	return p, ok
}

// waitFor polls cond until it holds or a second passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with no analysis delay", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		players := newMockPlayers()
		updater := newMockUpdater()
		players.set("p1", plan.Metrics{AvgExitVelocity: 82, MaxExitVelocity: 95, AvgBatSpeed: 50, SwingCount: 30})

		w := worker.NewInMemoryWorker(q, players, updater, worker.WithDelay(0), worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a request arrives for a known player", func() {
			q.add("p1")

			convey.Convey("Then the plan is regenerated from catalog metrics", func() {
				convey.So(waitFor(func() bool { _, ok := updater.get("p1"); return ok }), convey.ShouldBeTrue)
				p, _ := updater.get("p1")
				convey.So(len(p.Goals), convey.ShouldEqual, 4)
				convey.So(waitFor(func() bool { return q.doneCount("p1") == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the player is unknown", func() {
			q.add("ghost")

			convey.Convey("Then nothing is stored but the request is released", func() {
				convey.So(waitFor(func() bool { return q.doneCount("ghost") == 1 }), convey.ShouldBeTrue)
				_, ok := updater.get("ghost")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When replacing the plan fails", func() {
			players.set("p2", plan.Metrics{AvgExitVelocity: 90, MaxExitVelocity: 110, AvgBatSpeed: 60, SwingCount: 60})
			updater.setError("p2", errors.New("store down"))
			q.add("p2")

			convey.Convey("Then the request is still released", func() {
				convey.So(waitFor(func() bool { return q.doneCount("p2") == 1 }), convey.ShouldBeTrue)
				_, ok := updater.get("p2")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(func() { _ = w.Shutdown(shutdownCtx) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestInMemoryWorker_Delay(t *testing.T) {
	convey.Convey("Given a worker with a long analysis delay", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		players := newMockPlayers()
		updater := newMockUpdater()
		players.set("p1", plan.Metrics{AvgExitVelocity: 82, MaxExitVelocity: 95, AvgBatSpeed: 50, SwingCount: 30})

		w := worker.NewInMemoryWorker(q, players, updater, worker.WithDelay(time.Hour))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Convey("When the context is cancelled mid-analysis", func() {
			q.add("p1")
			time.Sleep(20 * time.Millisecond)
			cancel()

			convey.Convey("Then the wait is abandoned and the request released", func() {
				convey.So(waitFor(func() bool { return q.doneCount("p1") == 1 }), convey.ShouldBeTrue)
				_, ok := updater.get("p1")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		players := newMockPlayers()
		updater := newMockUpdater()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, players, updater)

			convey.Convey("Then it falls back to the default size", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When many requests are processed concurrently", func() {
			pool := worker.NewPool(4, q, players, updater, worker.WithDelay(time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const n = 40
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("p%d", i)
				players.set(id, plan.Metrics{AvgExitVelocity: 80, MaxExitVelocity: float64(90 + i), AvgBatSpeed: 50, SwingCount: 40})
				q.add(id)
			}

			convey.Convey("Then every plan is replaced", func() {
				convey.So(waitFor(func() bool {
					for i := 0; i < n; i++ {
						if _, ok := updater.get(fmt.Sprintf("p%d", i)); !ok {
							return false
						}
					}
					return true
				}), convey.ShouldBeTrue)
			})

			convey.Convey("And shutdown closes the queue and returns", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})

			convey.Convey("And shutting down twice does not panic", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(func() {
					_ = pool.Shutdown(shutdownCtx)
					_ = pool.Shutdown(shutdownCtx)
				}, convey.ShouldNotPanic)
			})
		})
	})
}
