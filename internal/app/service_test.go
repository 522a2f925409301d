package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	service "github.com/okian/rinkcast/internal/app"
	"github.com/okian/rinkcast/internal/domain/decay"
	"github.com/okian/rinkcast/internal/domain/model"
	"github.com/okian/rinkcast/internal/domain/reconcile"
	"github.com/okian/rinkcast/internal/domain/situation"
	"github.com/okian/rinkcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
}

func newStarted(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithDBPath(filepath.Join(t.TempDir(), "svc.db")),
		service.WithWorkerCount(2),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func f(v float64) *float64 { return &v }

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then operations report ErrNotStarted", func() {
			_, err := svc.Reconcile(ctx, model.ReconcileRequest{TeamID: "WSH"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.LatestBaseline(ctx, "p")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("Then stats are still available", func() {
			st := svc.GetStats(ctx)
			So(st.QueueLen, ShouldEqual, 0)
			So(st.ReconcileRuns, ShouldEqual, 0)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newStarted(t, service.WithQueueSize(16))

		Convey("When it is started again and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it can be restarted", func() {
				So(svc.Start(ctx), ShouldBeNil)
				st := svc.GetStats(ctx)
				So(st.QueueCapacity, ShouldEqual, 16)
				So(st.WorkerCount, ShouldEqual, 2)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newStarted(t, service.WithMaxRosterSize(3))
		defer func() { _ = svc.Stop(ctx) }()

		req := model.ReconcileRequest{
			GameID: "2024020001",
			TeamID: "WSH",
			Input: reconcile.Input{
				Players: []reconcile.PlayerEstimate{
					{PlayerID: "a", TOIEsSeconds: 600, ShotsEs: 2},
					{PlayerID: "b", TOIEsSeconds: 400, ShotsEs: 2},
				},
				Targets: reconcile.TeamTargets{TOIEsSeconds: 1200, ShotsEs: 6, ShotsPp: 2},
			},
			Finishing: &reconcile.FinishingContext{DefaultShootingPct: 0.1, GoalieSvProj: 0.905, LeagueSv: 0.905},
		}

		Convey("When a roster is reconciled", func() {
			run, err := svc.Reconcile(ctx, req)

			Convey("Then totals match the targets and the run is stored", func() {
				So(err, ShouldBeNil)
				So(run.RunID, ShouldNotBeEmpty)
				So(run.Output.Players[0].TOIEsSeconds, ShouldEqual, 720)
				So(run.Output.Players[1].TOIEsSeconds, ShouldEqual, 480)
				So(run.Output.Players[0].ShotsEs+run.Output.Players[1].ShotsEs, ShouldAlmostEqual, 6, 1e-9)
				So(run.Output.Report.ShotsPp.ScaleApplied, ShouldBeNil)
				So(len(run.Goals), ShouldEqual, 2)

				stored, err := svc.GetRun(ctx, run.RunID)
				So(err, ShouldBeNil)
				So(stored.Output, ShouldResemble, run.Output)
				So(svc.GetStats(ctx).ReconcileRuns, ShouldEqual, 1)
			})
		})

		Convey("When the team is missing", func() {
			bad := req
			bad.TeamID = ""
			_, err := svc.Reconcile(ctx, bad)

			Convey("Then the request is invalid", func() {
				So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			})
		})

		Convey("When the roster exceeds the cap", func() {
			big := req
			big.Input.Players = make([]reconcile.PlayerEstimate, 4)
			_, err := svc.Reconcile(ctx, big)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrRosterTooLarge), ShouldBeTrue)
			})
		})
	})
}

func TestService_DecayBlend(t *testing.T) {
	Convey("Given a service with a 10 day default tau", t, func() {
		svc := service.New(service.WithDecayTauDays(10))

		Convey("When blending without an explicit tau", func() {
			res := svc.DecayBlend(context.Background(), model.DecayBlendRequest{
				Samples: []decay.Sample{{Value: f(2), DaysAgo: 0}, {Value: f(4), DaysAgo: 0}},
				Prior:   f(0), PriorStrength: 2,
			})

			Convey("Then the default is used and the prior shrinks the mean", func() {
				So(res.TauDays, ShouldEqual, 10)
				So(*res.Mean, ShouldAlmostEqual, 3)
				So(res.EffectiveSampleSize, ShouldAlmostEqual, 2)
				So(*res.Shrunk, ShouldAlmostEqual, 1.5)
			})
		})

		Convey("When tau is given", func() {
			res := svc.DecayBlend(context.Background(), model.DecayBlendRequest{
				Samples: []decay.Sample{{Value: f(1), DaysAgo: 5}},
				TauDays: f(5),
			})

			Convey("Then it overrides the default and no shrinkage is reported", func() {
				So(res.TauDays, ShouldEqual, 5)
				So(res.Shrunk, ShouldBeNil)
			})
		})
	})
}

func TestService_Situation(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()

		Convey("When a home team is on the power play", func() {
			res, err := svc.Situation("1451", "WSH", "WSH", "NYR")

			Convey("Then the strength is pp", func() {
				So(err, ShouldBeNil)
				So(res.Strength, ShouldEqual, situation.PowerPlay)
				So(*res.IsHome, ShouldBeTrue)
				So(*res.EmptyNet, ShouldBeFalse)
			})
		})

		Convey("When no team is given", func() {
			res, err := svc.Situation("0651", "", "", "")

			Convey("Then only digits are decoded", func() {
				So(err, ShouldBeNil)
				So(res.Digits.AwayGoalie, ShouldEqual, 0)
				So(res.Strength, ShouldBeEmpty)
			})
		})

		Convey("When the code is malformed", func() {
			_, err := svc.Situation("15a1", "WSH", "WSH", "NYR")

			Convey("Then ErrInvalidCode is returned", func() {
				So(errors.Is(err, situation.ErrInvalidCode), ShouldBeTrue)
			})
		})
	})
}

func TestService_Aggregate(t *testing.T) {
	Convey("Given a short game", t, func() {
		svc := service.New()
		aggs := svc.Aggregate(context.Background(), reconcile.GameEvents{
			HomeTeamID: "WSH",
			AwayTeamID: "NYR",
			Shifts: []reconcile.ShiftSegment{
				{TeamID: "WSH", PlayerID: "8", Seconds: 45, SituationCode: "1551"},
				{TeamID: "NYR", PlayerID: "93", Seconds: 45, SituationCode: "bad"},
			},
		})

		Convey("Then both teams are present", func() {
			So(aggs["WSH"].ES.TOISeconds, ShouldEqual, 45)
			So(aggs["NYR"].Skipped, ShouldEqual, 1)
		})
	})

}
