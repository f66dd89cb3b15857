package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/swingiq/internal/adapters/repository"
	service "github.com/okian/swingiq/internal/app"
	"github.com/okian/swingiq/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration_Reanalysis(t *testing.T) {
	Convey("Given a service with a short analysis delay", t, func() {
		svc := startedService(service.WithAnalysisDelay(50 * time.Millisecond))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a re-analysis is requested after a note was added", func() {
			_, err := svc.AddNote(ctx, "p1", types.NoteInput{Text: "Before re-analysis"})
			So(err, ShouldBeNil)

			ack, err := svc.RequestReanalysis(ctx, "p1")
			So(err, ShouldBeNil)

			Convey("Then the request is queued and the plan shows analyzing", func() {
				So(ack.Status, ShouldEqual, "queued")
				v, _ := svc.Plan(ctx, "p1")
				So(v.Analyzing, ShouldBeTrue)
			})

			Convey("And a second request is merged into the pending one", func() {
				again, err := svc.RequestReanalysis(ctx, "p1")
				So(err, ShouldBeNil)
				So(again.Status, ShouldEqual, "pending")
			})

			Convey("And once the worker finishes the notes are reset", func() {
				done := eventually(func() bool {
					v, _ := svc.Plan(ctx, "p1")
					return !v.Analyzing
				})
				So(done, ShouldBeTrue)
				v, _ := svc.Plan(ctx, "p1")
				So(len(v.Notes), ShouldEqual, 3)
				So(len(v.Goals), ShouldEqual, 4)
			})
		})

		Convey("When re-analysis is requested for an unknown player", func() {
			_, err := svc.RequestReanalysis(ctx, "nobody")

			Convey("Then not found is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service whose queue holds one request", t, func() {
		svc := startedService(service.WithQueueSize(1), service.WithAnalysisDelay(time.Hour))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When more distinct players are queued than fit", func() {
			var errs []error
			for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
				_, err := svc.RequestReanalysis(ctx, id)
				errs = append(errs, err)
			}

			Convey("Then later requests report backpressure", func() {
				rejected := 0
				for _, err := range errs {
					if errors.Is(err, service.ErrBackpressure) {
						rejected++
					}
				}
				// At most one is with the worker, one in hand-off and one buffered.
				So(rejected, ShouldBeGreaterThanOrEqualTo, 4)
			})
		})
	})
}
