package baseline_test

import (
	"testing"
	"time"

	"github.com/okian/rinkcast/internal/domain/baseline"
	. "github.com/smartystreets/goconvey/convey"
)

func threeSeasons() []baseline.SeasonTotals {
	return []baseline.SeasonTotals{
		{SeasonID: 2024, GamesPlayed: 82, IXG: 30, TOI: 1800, Goals: 28, Shots: 240},
		{SeasonID: 2023, GamesPlayed: 70, IXG: 20, TOI: 1500, Goals: 18, Shots: 200},
		{SeasonID: 2022, GamesPlayed: 60, IXG: 10, TOI: 1200, Goals: 9, Shots: 150},
	}
}

func TestComputeBlendFromSeasons(t *testing.T) {
	Convey("Given three seasons sorted most recent first", t, func() {
		seasons := threeSeasons()

		Convey("When blending ixG over TOI", func() {
			br := baseline.ComputeBlendFromSeasons(seasons, baseline.FieldIXG, baseline.FieldTOI)

			Convey("Then the 0.6/0.3/0.1 weights are applied to numerator and denominator", func() {
				So(br, ShouldNotBeNil)
				So(br.Numer, ShouldAlmostEqual, 25, 1e-9)
				So(br.Denom, ShouldAlmostEqual, 1650, 1e-9)
				So(br.Rate, ShouldAlmostEqual, 25.0/1650.0, 1e-12)
			})
		})

		Convey("When more than three seasons are supplied", func() {
			extra := append(seasons, baseline.SeasonTotals{SeasonID: 2021, IXG: 1000, TOI: 1})
			br := baseline.ComputeBlendFromSeasons(extra, baseline.FieldIXG, baseline.FieldTOI)

			Convey("Then only the three most recent count", func() {
				So(br.Numer, ShouldAlmostEqual, 25, 1e-9)
				So(br.Denom, ShouldAlmostEqual, 1650, 1e-9)
			})
		})
	})

	Convey("Given only two seasons", t, func() {
		seasons := threeSeasons()[:2]

		Convey("When blending", func() {
			br := baseline.ComputeBlendFromSeasons(seasons, baseline.FieldIXG, baseline.FieldTOI)

			Convey("Then the weights renormalize to 2/3 and 1/3", func() {
				So(br.Numer, ShouldAlmostEqual, 30*2.0/3.0+20*1.0/3.0, 1e-9)
				So(br.Denom, ShouldAlmostEqual, 1800*2.0/3.0+1500*1.0/3.0, 1e-9)
			})
		})
	})

	Convey("Given a single season", t, func() {
		br := baseline.ComputeBlendFromSeasons(threeSeasons()[:1], baseline.FieldIXG, baseline.FieldTOI)

		Convey("Then it carries full weight", func() {
			So(br.Numer, ShouldAlmostEqual, 30, 1e-9)
			So(br.Denom, ShouldAlmostEqual, 1800, 1e-9)
		})
	})

	Convey("Given no seasons", t, func() {
		So(baseline.ComputeBlendFromSeasons(nil, baseline.FieldIXG, baseline.FieldTOI), ShouldBeNil)
	})

	Convey("Given seasons with zero denominators", t, func() {
		seasons := []baseline.SeasonTotals{{SeasonID: 2024, IXG: 3}}
		So(baseline.ComputeBlendFromSeasons(seasons, baseline.FieldIXG, baseline.FieldTOI), ShouldBeNil)
	})
}

func TestCareerWeights(t *testing.T) {
	Convey("Given seasons with games played", t, func() {
		w := baseline.CareerWeights([]baseline.SeasonTotals{{GamesPlayed: 60}, {GamesPlayed: 20}})

		Convey("Then weights are proportional to games played", func() {
			So(w[0], ShouldAlmostEqual, 0.75, 1e-12)
			So(w[1], ShouldAlmostEqual, 0.25, 1e-12)
		})
	})

	Convey("Given seasons without games played", t, func() {
		w := baseline.CareerWeights([]baseline.SeasonTotals{{}, {}, {}, {}})

		Convey("Then weights are flat", func() {
			So(w, ShouldResemble, []float64{0.25, 0.25, 0.25, 0.25})
		})
	})
}

func TestBlendWithWeights(t *testing.T) {
	Convey("Given weights that do not sum to one", t, func() {
		seasons := threeSeasons()
		br := baseline.BlendWithWeights(seasons, []float64{2, 2}, baseline.FieldGoals, baseline.FieldShots)

		Convey("Then the overlapping prefix is renormalized", func() {
			So(br.Numer, ShouldAlmostEqual, 23, 1e-9)
			So(br.Denom, ShouldAlmostEqual, 220, 1e-9)
		})
	})

	Convey("Given all-zero weights", t, func() {
		So(baseline.BlendWithWeights(threeSeasons(), []float64{0, -1}, baseline.FieldIXG, baseline.FieldTOI), ShouldBeNil)
	})
}

func TestBuildBaselinePayload(t *testing.T) {
	Convey("Given three seasons of skater totals out of order", t, func() {
		seasons := threeSeasons()
		seasons[0], seasons[2] = seasons[2], seasons[0]
		snapshot := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

		Convey("When building the baseline payload", func() {
			p := baseline.BuildBaselinePayload(baseline.PayloadInput{
				PlayerID:     "8478402",
				SnapshotDate: snapshot,
				SeasonTotals: seasons,
			})

			Convey("Then both windows carry ixG per 60 with positive totals", func() {
				w3 := p.Win3yr["nst_ixg_per_60"]
				wc := p.WinCareer["nst_ixg_per_60"]
				So(w3, ShouldNotBeNil)
				So(wc, ShouldNotBeNil)
				So(w3.Numer, ShouldBeGreaterThan, 0)
				So(w3.Denom, ShouldBeGreaterThan, 0)
				So(wc.Numer, ShouldBeGreaterThan, 0)
				So(wc.Denom, ShouldBeGreaterThan, 0)
			})

			Convey("And the 3-year window sorts seasons before weighting", func() {
				So(p.Win3yr["nst_ixg_per_60"].Numer, ShouldAlmostEqual, 25, 1e-9)
			})

			Convey("And the career window weights by games played", func() {
				gp := 82.0 + 70 + 60
				want := (82*30 + 70*20 + 60*10) / gp
				So(p.WinCareer["nst_ixg_per_60"].Numer, ShouldAlmostEqual, want, 1e-9)
			})

			Convey("And stats with a zero numerator still blend to a zero rate", func() {
				So(p.Win3yr["nst_icf_per_60"], ShouldNotBeNil)
				So(p.Win3yr["nst_icf_per_60"].Rate, ShouldEqual, 0)
				So(p.SeasonsUsed, ShouldEqual, 3)
				So(p.WinRecent, ShouldBeNil)
			})

			Convey("And the caller's slice is not reordered", func() {
				So(seasons[0].SeasonID, ShouldEqual, 2022)
			})

			Convey("And Scaled converts to per-60 units", func() {
				v, ok := baseline.Scaled(p.Win3yr, "nst_ixg_per_60")
				So(ok, ShouldBeTrue)
				So(v, ShouldAlmostEqual, 25.0/1650.0*60, 1e-9)
			})
		})

		Convey("When game rows are supplied", func() {
			rows := []baseline.GameRow{
				{Date: snapshot, TOI: 18, IXG: 0.6},
				{Date: snapshot.AddDate(0, 0, -30), TOI: 12, IXG: 0.2},
				{Date: snapshot.AddDate(0, 0, 3), TOI: 20, IXG: 5},
			}
			p := baseline.BuildBaselinePayload(baseline.PayloadInput{
				PlayerID:      "8478402",
				SnapshotDate:  snapshot,
				SeasonTotals:  seasons,
				RowsAll:       rows,
				RecentTauDays: 30,
			})

			Convey("Then the recent window ignores games after the snapshot", func() {
				r := p.WinRecent["nst_ixg_per_60"]
				So(r, ShouldNotBeNil)
				So(r.Games, ShouldEqual, 2)
				So(r.Rate, ShouldBeLessThan, 0.6/18.0)
			})

			Convey("And TOI per game uses one game per row", func() {
				r := p.WinRecent["nst_toi_per_gp"]
				So(r, ShouldNotBeNil)
				So(r.Games, ShouldEqual, 2)
			})
		})
	})

	Convey("Given no seasons at all", t, func() {
		p := baseline.BuildBaselinePayload(baseline.PayloadInput{PlayerID: "x"})

		Convey("Then the windows are empty", func() {
			So(p.Win3yr, ShouldBeEmpty)
			So(p.WinCareer, ShouldBeEmpty)
		})
	})
}
