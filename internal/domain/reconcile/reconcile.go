// Package reconcile redistributes noisy player-level projections so they sum
// exactly to authoritative team totals.
//
// Time on ice is reconciled in whole seconds with the largest-remainder
// method; shots are rescaled proportionally, falling back to a split by
// reconciled time on ice when there is no shot signal to scale. Every
// function is pure and safe for concurrent use.
package reconcile

import (
	"math"

	"github.com/okian/rinkcast/internal/domain/numeric"
	"gonum.org/v1/gonum/floats"
)

// PlayerEstimate is one skater's projected usage for a game.
type PlayerEstimate struct {
	PlayerID     string  `json:"player_id"`
	TOIEsSeconds float64 `json:"toi_es_seconds"`
	TOIPpSeconds float64 `json:"toi_pp_seconds"`
	ShotsEs      float64 `json:"shots_es"`
	ShotsPp      float64 `json:"shots_pp"`
}

// TeamTargets are the team totals the roster must sum to.
type TeamTargets struct {
	TOIEsSeconds float64 `json:"toi_es_seconds"`
	TOIPpSeconds float64 `json:"toi_pp_seconds"`
	ShotsEs      float64 `json:"shots_es"`
	ShotsPp      float64 `json:"shots_pp"`
}

// Input is a full team roster and its targets. Partial rosters produce wrong
// shares; callers must pass every player on the team.
type Input struct {
	Players []PlayerEstimate `json:"players"`
	Targets TeamTargets      `json:"targets"`
}

// FieldReport audits one reconciled field. ScaleApplied is nil when the
// allocation did not come from rescaling the estimates. For TOI fields it is
// the nominal ratio of the rounded target to the estimate sum; the seconds
// themselves come from largest-remainder rounding.
type FieldReport struct {
	Before       float64  `json:"before"`
	After        float64  `json:"after"`
	ScaleApplied *float64 `json:"scale_applied"`
}

// Report audits every reconciled field.
type Report struct {
	TOIEs   FieldReport `json:"toi_es"`
	TOIPp   FieldReport `json:"toi_pp"`
	ShotsEs FieldReport `json:"shots_es"`
	ShotsPp FieldReport `json:"shots_pp"`
}

// Output holds reconciled players, in input order, and the audit report.
type Output struct {
	Players []PlayerEstimate `json:"players"`
	Report  Report           `json:"report"`
}

// ReconcileTeamToPlayers forces the roster's ES and PP time on ice and shots
// to equal the team targets. TOI targets are rounded to whole non-negative
// seconds and capped at MaxTargetSeconds; degenerate estimates (NaN,
// negative, infinite) count as zero. The input is not modified.
func ReconcileTeamToPlayers(in Input) Output {
	n := len(in.Players)
	players := make([]PlayerEstimate, n)
	copy(players, in.Players)

	toiEs := column(players, func(p PlayerEstimate) float64 { return p.TOIEsSeconds })
	toiPp := column(players, func(p PlayerEstimate) float64 { return p.TOIPpSeconds })
	shotsEs := column(players, func(p PlayerEstimate) float64 { return p.ShotsEs })
	shotsPp := column(players, func(p PlayerEstimate) float64 { return p.ShotsPp })

	var rep Report
	var esSeconds, ppSeconds, esShots, ppShots []float64
	esSeconds, rep.TOIEs = reconcileSeconds(toiEs, in.Targets.TOIEsSeconds)
	ppSeconds, rep.TOIPp = reconcileSeconds(toiPp, in.Targets.TOIPpSeconds)
	esShots, rep.ShotsEs = reconcileShots(shotsEs, esSeconds, in.Targets.ShotsEs)
	ppShots, rep.ShotsPp = reconcileShots(shotsPp, ppSeconds, in.Targets.ShotsPp)

	for i := range players {
		players[i].TOIEsSeconds = esSeconds[i]
		players[i].TOIPpSeconds = ppSeconds[i]
		players[i].ShotsEs = esShots[i]
		players[i].ShotsPp = ppShots[i]
	}
	return Output{Players: players, Report: rep}
}

func reconcileSeconds(estimates []float64, target float64) ([]float64, FieldReport) {
	t := wholeSeconds(target)
	before := floats.Sum(cleaned(estimates))
	alloc := AllocateSeconds(estimates, t)

	out := make([]float64, len(alloc))
	var after int64
	for i, v := range alloc {
		out[i] = float64(v)
		after += v
	}
	rep := FieldReport{Before: before, After: float64(after)}
	if before > 0 && len(estimates) > 0 {
		scale := float64(t) / before
		rep.ScaleApplied = &scale
	}
	return out, rep
}

func reconcileShots(estimates, toi []float64, target float64) ([]float64, FieldReport) {
	before := floats.Sum(cleaned(estimates))
	out, scale := ScaleShots(estimates, toi, target)
	return out, FieldReport{Before: before, After: floats.Sum(out), ScaleApplied: scale}
}

// wholeSeconds rounds a TOI target to the nearest non-negative integer, at
// most MaxTargetSeconds.
func wholeSeconds(x float64) int64 {
	x = math.Round(numeric.NonNegative(x))
	if x >= float64(MaxTargetSeconds) {
		return MaxTargetSeconds
	}
	return int64(x)
}

func column(players []PlayerEstimate, get func(PlayerEstimate) float64) []float64 {
	out := make([]float64, len(players))
	for i, p := range players {
		out[i] = get(p)
	}
	return out
}
