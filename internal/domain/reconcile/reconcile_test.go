package reconcile_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/rinkcast/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

func sumInt(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestAllocateSeconds(t *testing.T) {
	Convey("Given three equal estimates and a target of 5", t, func() {
		out := reconcile.AllocateSeconds([]float64{1, 1, 1}, 5)

		Convey("Then the two extra units go to the first players in input order", func() {
			So(out, ShouldResemble, []int64{2, 2, 1})
		})
	})

	Convey("Given unequal remainders", t, func() {
		// ideal shares: 3.3, 3.6, 3.1
		out := reconcile.AllocateSeconds([]float64{33, 36, 31}, 10)

		Convey("Then the largest fractional remainder wins", func() {
			So(out, ShouldResemble, []int64{3, 4, 3})
		})
	})

	Convey("Given all-zero estimates", t, func() {
		out := reconcile.AllocateSeconds([]float64{0, 0, 0, 0}, 10)

		Convey("Then the target is split evenly with remainder in input order", func() {
			So(out, ShouldResemble, []int64{3, 3, 2, 2})
		})
	})

	Convey("Given degenerate estimates", t, func() {
		out := reconcile.AllocateSeconds([]float64{math.NaN(), -50, 10}, 7)

		Convey("Then NaN and negative estimates count as zero", func() {
			So(out, ShouldResemble, []int64{0, 0, 7})
		})
	})

	Convey("Given a negative target", t, func() {
		So(reconcile.AllocateSeconds([]float64{1, 2}, -4), ShouldResemble, []int64{0, 0})
	})

	Convey("Given an empty roster", t, func() {
		So(reconcile.AllocateSeconds(nil, 100), ShouldBeEmpty)
	})

	Convey("Given an estimate whose product with the target overflows", t, func() {
		done := make(chan []int64, 1)
		go func() { done <- reconcile.AllocateSeconds([]float64{1e300, 1}, 1_000_000_000) }()

		Convey("Then the allocation returns and stays exact", func() {
			select {
			case out := <-done:
				So(out, ShouldResemble, []int64{1_000_000_000, 0})
			case <-time.After(3 * time.Second):
				So("allocation did not return", ShouldBeEmpty)
			}
		})
	})

	Convey("Given estimates whose sum overflows", t, func() {
		out := reconcile.AllocateSeconds([]float64{math.MaxFloat64, math.MaxFloat64, 0}, 11)

		Convey("Then shares are taken relative to the largest estimate", func() {
			So(out, ShouldResemble, []int64{6, 5, 0})
		})
	})

	Convey("Given a target above MaxTargetSeconds", t, func() {
		out := reconcile.AllocateSeconds([]float64{1, 1}, math.MaxInt64)

		Convey("Then it is clamped and still allocated exactly", func() {
			So(sumInt(out), ShouldEqual, reconcile.MaxTargetSeconds)
			So(out[0], ShouldEqual, reconcile.MaxTargetSeconds/2)
		})
	})

	Convey("Given random estimate vectors and targets", t, func() {
		rng := rand.New(rand.NewSource(20240501))

		Convey("Then every allocation is exact and non-negative", func() {
			for trial := 0; trial < 2000; trial++ {
				n := 1 + rng.Intn(25)
				est := make([]float64, n)
				for i := range est {
					switch rng.Intn(6) {
					case 0:
						est[i] = 0
					case 1:
						est[i] = rng.Float64() * 1e-6
					default:
						est[i] = rng.Float64() * 1500
					}
				}
				target := rng.Int63n(5000)
				out := reconcile.AllocateSeconds(est, target)
				So(len(out), ShouldEqual, n)
				So(sumInt(out), ShouldEqual, target)
				for _, v := range out {
					So(v, ShouldBeGreaterThanOrEqualTo, 0)
				}
			}
		})
	})
}

func TestScaleShots(t *testing.T) {
	Convey("Given shot estimates [2, 8] and a target of 15", t, func() {
		out, scale := reconcile.ScaleShots([]float64{2, 8}, []float64{600, 600}, 15)

		Convey("Then the estimates scale by 1.5", func() {
			So(scale, ShouldNotBeNil)
			So(*scale, ShouldAlmostEqual, 1.5, 1e-12)
			So(out[0], ShouldAlmostEqual, 3, 1e-12)
			So(out[1], ShouldAlmostEqual, 12, 1e-12)
		})
	})

	Convey("Given zero shot estimates and TOI [100, 300]", t, func() {
		out, scale := reconcile.ScaleShots([]float64{0, 0}, []float64{100, 300}, 10)

		Convey("Then the target is split by TOI and no scale is reported", func() {
			So(scale, ShouldBeNil)
			So(out[0], ShouldAlmostEqual, 2.5, 1e-12)
			So(out[1], ShouldAlmostEqual, 7.5, 1e-12)
		})
	})

	Convey("Given shot estimates whose sum overflows", t, func() {
		out, scale := reconcile.ScaleShots([]float64{math.MaxFloat64, math.MaxFloat64}, nil, 4)

		Convey("Then the target is still split in proportion", func() {
			So(out[0], ShouldAlmostEqual, 2, 1e-12)
			So(out[1], ShouldAlmostEqual, 2, 1e-12)
			So(scale, ShouldNotBeNil)
			So(*scale, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given zero shots and zero TOI", t, func() {
		out, scale := reconcile.ScaleShots([]float64{0, 0, 0, 0}, []float64{0, 0, 0, 0}, 2)

		Convey("Then the target is split evenly", func() {
			So(scale, ShouldBeNil)
			So(out, ShouldResemble, []float64{0.5, 0.5, 0.5, 0.5})
		})
	})
}

func TestReconcileTeamToPlayers(t *testing.T) {
	Convey("Given a roster with noisy estimates", t, func() {
		in := reconcile.Input{
			Players: []reconcile.PlayerEstimate{
				{PlayerID: "a", TOIEsSeconds: 900.4, TOIPpSeconds: 120, ShotsEs: 2, ShotsPp: 0},
				{PlayerID: "b", TOIEsSeconds: 850.2, TOIPpSeconds: 60, ShotsEs: 8, ShotsPp: 0},
				{PlayerID: "c", TOIEsSeconds: 700.9, TOIPpSeconds: 0, ShotsEs: 0, ShotsPp: 0},
			},
			Targets: reconcile.TeamTargets{TOIEsSeconds: 2500, TOIPpSeconds: 241, ShotsEs: 15, ShotsPp: 3},
		}
		original := append([]reconcile.PlayerEstimate(nil), in.Players...)

		Convey("When reconciling", func() {
			out := reconcile.ReconcileTeamToPlayers(in)

			Convey("Then TOI sums equal the targets exactly in whole seconds", func() {
				var es, pp float64
				for _, p := range out.Players {
					So(p.TOIEsSeconds, ShouldEqual, math.Trunc(p.TOIEsSeconds))
					So(p.TOIPpSeconds, ShouldEqual, math.Trunc(p.TOIPpSeconds))
					es += p.TOIEsSeconds
					pp += p.TOIPpSeconds
				}
				So(es, ShouldEqual, 2500)
				So(pp, ShouldEqual, 241)
				So(out.Report.TOIEs.After, ShouldEqual, 2500)
				So(out.Report.TOIEs.Before, ShouldAlmostEqual, 2451.5, 1e-9)
			})

			Convey("And ES shots are scaled proportionally", func() {
				So(out.Players[0].ShotsEs, ShouldAlmostEqual, 3, 1e-12)
				So(out.Players[1].ShotsEs, ShouldAlmostEqual, 12, 1e-12)
				So(out.Players[2].ShotsEs, ShouldEqual, 0)
				So(*out.Report.ShotsEs.ScaleApplied, ShouldAlmostEqual, 1.5, 1e-12)
			})

			Convey("And PP shots fall back to reconciled PP TOI", func() {
				So(out.Report.ShotsPp.ScaleApplied, ShouldBeNil)
				total := out.Players[0].TOIPpSeconds + out.Players[1].TOIPpSeconds + out.Players[2].TOIPpSeconds
				So(out.Players[0].ShotsPp, ShouldAlmostEqual, 3*out.Players[0].TOIPpSeconds/total, 1e-12)
				So(out.Players[2].ShotsPp, ShouldEqual, 0)
				So(out.Report.ShotsPp.After, ShouldAlmostEqual, 3, 1e-12)
			})

			Convey("And the input is left untouched", func() {
				So(in.Players, ShouldResemble, original)
			})
		})
	})

	Convey("Given zero shot estimates with TOI [100, 300]", t, func() {
		in := reconcile.Input{
			Players: []reconcile.PlayerEstimate{
				{PlayerID: "a", TOIEsSeconds: 100},
				{PlayerID: "b", TOIEsSeconds: 300},
			},
			Targets: reconcile.TeamTargets{TOIEsSeconds: 400, ShotsEs: 10},
		}
		out := reconcile.ReconcileTeamToPlayers(in)

		Convey("Then ES shots follow TOI", func() {
			So(out.Players[0].ShotsEs, ShouldAlmostEqual, 2.5, 1e-12)
			So(out.Players[1].ShotsEs, ShouldAlmostEqual, 7.5, 1e-12)
			So(out.Report.ShotsEs.ScaleApplied, ShouldBeNil)
		})
	})

	Convey("Given a fractional TOI target", t, func() {
		in := reconcile.Input{
			Players: []reconcile.PlayerEstimate{{PlayerID: "a", TOIEsSeconds: 1}, {PlayerID: "b", TOIEsSeconds: 1}},
			Targets: reconcile.TeamTargets{TOIEsSeconds: 100.6},
		}
		out := reconcile.ReconcileTeamToPlayers(in)

		Convey("Then it is rounded to whole seconds", func() {
			So(out.Report.TOIEs.After, ShouldEqual, 101)
			So(out.Players[0].TOIEsSeconds, ShouldEqual, 51)
			So(out.Players[1].TOIEsSeconds, ShouldEqual, 50)
		})

		Convey("And the TOI scale is the nominal rounded-target ratio", func() {
			So(*out.Report.TOIEs.ScaleApplied, ShouldEqual, 101.0/2)
		})
	})

	Convey("Given a TOI target beyond the int64 range", t, func() {
		out := reconcile.ReconcileTeamToPlayers(reconcile.Input{
			Players: []reconcile.PlayerEstimate{{PlayerID: "a", TOIEsSeconds: 3}, {PlayerID: "b", TOIEsSeconds: 1}},
			Targets: reconcile.TeamTargets{TOIEsSeconds: 1e19},
		})

		Convey("Then the target is capped rather than wrapped to zero", func() {
			capped := float64(reconcile.MaxTargetSeconds)
			So(out.Report.TOIEs.After, ShouldEqual, capped)
			So(out.Players[0].TOIEsSeconds+out.Players[1].TOIEsSeconds, ShouldEqual, capped)
			So(out.Players[0].TOIEsSeconds, ShouldEqual, capped*3/4)
		})
	})

	Convey("Given a reconciled roster", t, func() {
		first := reconcile.ReconcileTeamToPlayers(reconcile.Input{
			Players: []reconcile.PlayerEstimate{
				{PlayerID: "a", TOIEsSeconds: 812.3, TOIPpSeconds: 95.5, ShotsEs: 2.2, ShotsPp: 0.4},
				{PlayerID: "b", TOIEsSeconds: 640.8, TOIPpSeconds: 30.1, ShotsEs: 1.1, ShotsPp: 0.9},
				{PlayerID: "c", TOIEsSeconds: 1011.0, TOIPpSeconds: 0, ShotsEs: 3.7, ShotsPp: 0},
			},
			Targets: reconcile.TeamTargets{TOIEsSeconds: 2460, TOIPpSeconds: 120, ShotsEs: 7, ShotsPp: 1},
		})

		Convey("When reconciling its own output against its own sums", func() {
			var target reconcile.TeamTargets
			for _, p := range first.Players {
				target.TOIEsSeconds += p.TOIEsSeconds
				target.TOIPpSeconds += p.TOIPpSeconds
				target.ShotsEs += p.ShotsEs
				target.ShotsPp += p.ShotsPp
			}
			second := reconcile.ReconcileTeamToPlayers(reconcile.Input{Players: first.Players, Targets: target})

			Convey("Then TOI is unchanged and shots scale by one", func() {
				for i := range first.Players {
					So(second.Players[i].TOIEsSeconds, ShouldEqual, first.Players[i].TOIEsSeconds)
					So(second.Players[i].TOIPpSeconds, ShouldEqual, first.Players[i].TOIPpSeconds)
				}
				So(*second.Report.ShotsEs.ScaleApplied, ShouldAlmostEqual, 1, 1e-12)
				So(*second.Report.ShotsPp.ScaleApplied, ShouldAlmostEqual, 1, 1e-12)
			})
		})
	})

	Convey("Given random rosters", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("Then shot sums match targets to floating precision", func() {
			for trial := 0; trial < 500; trial++ {
				n := 1 + rng.Intn(20)
				players := make([]reconcile.PlayerEstimate, n)
				for i := range players {
					players[i] = reconcile.PlayerEstimate{
						TOIEsSeconds: rng.Float64() * 1200,
						TOIPpSeconds: rng.Float64() * 200,
						ShotsEs:      float64(rng.Intn(4)) * rng.Float64(),
						ShotsPp:      float64(rng.Intn(2)) * rng.Float64(),
					}
				}
				targets := reconcile.TeamTargets{
					TOIEsSeconds: float64(rng.Intn(20000)),
					TOIPpSeconds: float64(rng.Intn(1200)),
					ShotsEs:      rng.Float64() * 40,
					ShotsPp:      rng.Float64() * 10,
				}
				out := reconcile.ReconcileTeamToPlayers(reconcile.Input{Players: players, Targets: targets})
				So(out.Report.TOIEs.After, ShouldEqual, targets.TOIEsSeconds)
				So(out.Report.TOIPp.After, ShouldEqual, targets.TOIPpSeconds)
				So(out.Report.ShotsEs.After, ShouldAlmostEqual, targets.ShotsEs, 1e-9)
				So(out.Report.ShotsPp.After, ShouldAlmostEqual, targets.ShotsPp, 1e-9)
			}
		})
	})
}
