package numeric_test

import (
	"math"
	"testing"

	"github.com/okian/rinkcast/internal/domain/numeric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClip(t *testing.T) {
	Convey("Given Clip", t, func() {
		Convey("When x is inside the bounds", func() {
			So(numeric.Clip(0.5, 0, 1), ShouldEqual, 0.5)
		})

		Convey("When x is outside the bounds", func() {
			So(numeric.Clip(-3, 0, 1), ShouldEqual, 0)
			So(numeric.Clip(7, 0, 1), ShouldEqual, 1)
		})

		Convey("When the bounds are reversed", func() {
			So(numeric.Clip(7, 1, 0), ShouldEqual, 1)
			So(numeric.Clip(-7, 1, 0), ShouldEqual, 0)
		})

		Convey("When x is not finite", func() {
			So(numeric.Clip(math.NaN(), 0.8, 1.2), ShouldEqual, 0.8)
			So(numeric.Clip(math.Inf(1), math.Inf(-1), 2), ShouldEqual, 2)
		})

		Convey("When neither bound is finite", func() {
			So(numeric.Clip(42, math.Inf(-1), math.Inf(1)), ShouldEqual, 42)
			So(math.IsNaN(numeric.Clip(math.NaN(), math.NaN(), math.Inf(1))), ShouldBeTrue)
		})

		Convey("When only one bound is finite", func() {
			So(numeric.Clip(-5, 0, math.Inf(1)), ShouldEqual, 0)
			So(numeric.Clip(50, 0, math.Inf(1)), ShouldEqual, 50)
			So(numeric.Clip(50, 10, math.Inf(-1)), ShouldEqual, 10)
		})
	})
}

func TestDecayWeight(t *testing.T) {
	Convey("Given DecayWeight", t, func() {
		So(numeric.DecayWeight(0, 50), ShouldEqual, 1)
		So(numeric.DecayWeight(100, 50), ShouldAlmostEqual, math.Exp(-2), 1e-15)

		Convey("Then negative ages are treated as today", func() {
			So(numeric.DecayWeight(-10, 50), ShouldEqual, 1)
		})

		Convey("Then a non-positive tau falls back to one day", func() {
			So(numeric.DecayWeight(3, 0), ShouldAlmostEqual, math.Exp(-3), 1e-15)
			So(numeric.DecayWeight(3, -5), ShouldAlmostEqual, math.Exp(-3), 1e-15)
		})
	})
}

func TestGoalieFinishMult(t *testing.T) {
	Convey("Given GoalieFinishMult", t, func() {
		Convey("When the goalie is league average", func() {
			So(numeric.GoalieFinishMult(0.905, 0.905), ShouldEqual, 1)
		})

		Convey("When the goalie is better than average", func() {
			So(numeric.GoalieFinishMult(0.912, 0.905), ShouldAlmostEqual, 0.9, 1e-9)
		})

		Convey("When the gap is extreme", func() {
			So(numeric.GoalieFinishMult(0.99, 0.90), ShouldEqual, 0.80)
			So(numeric.GoalieFinishMult(0.80, 0.90), ShouldEqual, 1.20)
		})

		Convey("When an input is not finite", func() {
			So(numeric.GoalieFinishMult(math.NaN(), 0.905), ShouldEqual, 1)
			So(numeric.GoalieFinishMult(0.9, math.Inf(1)), ShouldEqual, 1)
		})
	})
}

func TestNonNegative(t *testing.T) {
	Convey("Given NonNegative", t, func() {
		So(numeric.NonNegative(3), ShouldEqual, 3)
		So(numeric.NonNegative(-3), ShouldEqual, 0)
		So(numeric.NonNegative(math.NaN()), ShouldEqual, 0)
		So(numeric.NonNegative(math.Inf(1)), ShouldEqual, 0)
	})
}
