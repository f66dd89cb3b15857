package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/swingiq/internal/adapters/repository"
	service "github.com/okian/swingiq/internal/app"
	"github.com/okian/swingiq/internal/domain/plan"
	"github.com/okian/swingiq/internal/domain/types"
	"github.com/okian/swingiq/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC) }

func startedService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithAnalysisDelay(0),
		service.WithClock(fixedNow),
		service.WithWorkerCount(1),
	}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it reports not started", func() {
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When calling an operation before starting", func() {
			_, err := svc.Plan(context.Background(), "p1")

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["catalog"], ShouldNotBeNil)
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a catalog path that does not exist", t, func() {
		svc := service.New(service.WithCatalogPath("/nonexistent/catalog.yaml"))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Catalog(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("Then players can be listed and filtered", func() {
			all, err := svc.Players(ctx, "")
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 7)

			roster, err := svc.Players(ctx, "roster-west")
			So(err, ShouldBeNil)
			So(len(roster), ShouldEqual, 2)
		})

		Convey("And unknown ids report not found", func() {
			_, err := svc.Player(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Group(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = svc.Plan(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("And groups, sessions and listings are served", func() {
			groups, err := svc.Groups(ctx)
			So(err, ShouldBeNil)
			So(len(groups), ShouldEqual, 3)

			sessions, err := svc.Sessions(ctx, "p1")
			So(err, ShouldBeNil)
			So(len(sessions), ShouldEqual, 2)

			listings, err := svc.Listings(ctx, "sensors")
			So(err, ShouldBeNil)
			So(len(listings), ShouldEqual, 1)
		})
	})
}

func TestService_Plan(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When the plan for p1 is first requested", func() {
			v, err := svc.Plan(ctx, "p1")
			So(err, ShouldBeNil)

			Convey("Then it is generated from the catalog metrics", func() {
				So(v.PlayerID, ShouldEqual, "p1")
				So(len(v.Goals), ShouldEqual, 4)
				So(v.Goals[0].Target, ShouldEqual, 100)
				So(v.Goals[1].Progress, ShouldEqual, 93)
				So(v.Needs, ShouldResemble, plan.Needs{Power: true, BatSpeed: true, Consistency: true})
				So(v.Analyzing, ShouldBeFalse)
				So(len(v.Notes), ShouldEqual, 3)
			})

			Convey("And it is kept in the workspace", func() {
				So(svc.GetStats()["workspacePlans"], ShouldEqual, 1)
			})
		})

		Convey("When the plan for p2 is requested", func() {
			v, err := svc.Plan(ctx, "p2")
			So(err, ShouldBeNil)

			Convey("Then only the ahead average exit velocity goal exists", func() {
				So(len(v.Goals), ShouldEqual, 1)
				So(v.Goals[0].Status, ShouldEqual, plan.StatusAhead)
				So(v.Goals[0].Target, ShouldEqual, 95)
				for _, d := range v.Drills {
					So(d.LinkedGoal, ShouldEqual, "g1")
					So(d.Resolved, ShouldBeTrue)
				}
			})
		})
	})
}

func TestService_AddNote(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(service.WithMaxNoteLength(20), service.WithDefaultAuthor("Coach Delgado"))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a note is added", func() {
			ack, err := svc.AddNote(ctx, "p1", types.NoteInput{Author: "Sam", Text: "  Great session  "})
			So(err, ShouldBeNil)

			Convey("Then it is dated today and trimmed", func() {
				So(ack.Duplicate, ShouldBeFalse)
				So(ack.Note.ID, ShouldNotBeEmpty)
				So(ack.Note.Date, ShouldEqual, "2026-03-02")
				So(ack.Note.Text, ShouldEqual, "Great session")
			})

			Convey("And it is prepended ahead of the seed notes", func() {
				v, _ := svc.Plan(ctx, "p1")
				So(len(v.Notes), ShouldEqual, 4)
				So(v.Notes[0].ID, ShouldEqual, ack.Note.ID)
				So(v.Notes[1].ID, ShouldEqual, "n1")
			})

			Convey("And regenerating the plan drops it", func() {
				v, err := svc.Reanalyze(ctx, "p1")
				So(err, ShouldBeNil)
				So(len(v.Notes), ShouldEqual, 3)
				So(v.Notes[0].ID, ShouldEqual, "n1")
			})
		})

		Convey("When the author is missing", func() {
			ack, err := svc.AddNote(ctx, "p1", types.NoteInput{Text: "ok"})
			So(err, ShouldBeNil)

			Convey("Then the default author is used", func() {
				So(ack.Note.Author, ShouldEqual, "Coach Delgado")
			})
		})

		Convey("When the text is empty or too long", func() {
			_, errEmpty := svc.AddNote(ctx, "p1", types.NoteInput{Text: "   "})
			_, errLong := svc.AddNote(ctx, "p1", types.NoteInput{Text: strings.Repeat("x", 21)})

			Convey("Then the note is rejected", func() {
				So(errors.Is(errEmpty, service.ErrInvalidNote), ShouldBeTrue)
				So(errors.Is(errLong, service.ErrInvalidNote), ShouldBeTrue)
			})
		})

		Convey("When the same idempotency key is sent twice", func() {
			in := types.NoteInput{Text: "Timing drill", IdempotencyKey: "abc"}
			first, err1 := svc.AddNote(ctx, "p1", in)
			second, err2 := svc.AddNote(ctx, "p1", in)

			Convey("Then the second submission is a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Duplicate, ShouldBeFalse)
				So(second.Duplicate, ShouldBeTrue)
				So(second.Note.ID, ShouldEqual, first.Note.ID)

				v, _ := svc.Plan(ctx, "p1")
				So(len(v.Notes), ShouldEqual, 4)
			})

			Convey("And the key is scoped to the player", func() {
				other, err := svc.AddNote(ctx, "p2", in)
				So(err, ShouldBeNil)
				So(other.Duplicate, ShouldBeFalse)
			})
		})

		Convey("When the same idempotency key arrives concurrently", func() {
			in := types.NoteInput{Text: "Tee work", IdempotencyKey: "race"}
			const callers = 16
			acks := make([]types.NoteAck, callers)
			errs := make([]error, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					acks[i], errs[i] = svc.AddNote(ctx, "p1", in)
				}(i)
			}
			wg.Wait()

			Convey("Then exactly one note is stored and every ack names it", func() {
				stored := 0
				for i := range acks {
					So(errs[i], ShouldBeNil)
					So(acks[i].Note.ID, ShouldEqual, acks[0].Note.ID)
					if !acks[i].Duplicate {
						stored++
					}
				}
				So(stored, ShouldEqual, 1)

				v, _ := svc.Plan(ctx, "p1")
				So(len(v.Notes), ShouldEqual, 4)
				So(v.Notes[0].ID, ShouldEqual, acks[0].Note.ID)
			})
		})

		Convey("When the player is unknown", func() {
			_, err := svc.AddNote(ctx, "nobody", types.NoteInput{Text: "hi"})

			Convey("Then not found is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Preview(t *testing.T) {
	Convey("Given raw metrics", t, func() {
		svc := service.New()
		v := svc.Preview(context.Background(), plan.Metrics{AvgExitVelocity: 90, MaxExitVelocity: 110, AvgBatSpeed: 60, SwingCount: 60})

		Convey("Then a plan is produced without starting the service", func() {
			So(v.PlayerID, ShouldBeEmpty)
			So(len(v.Goals), ShouldEqual, 1)
			So(v.Goals[0].Status, ShouldEqual, plan.StatusAhead)
		})
	})
}
