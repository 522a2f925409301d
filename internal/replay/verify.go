package replay

import (
	"fmt"
	"math"

	"github.com/okian/rinkcast/internal/domain/reconcile"
)

// shotTolerance is the relative slack allowed on real-valued shot sums.
const shotTolerance = 1e-9

// Verify checks a reconcile response against its case and returns every
// violated guarantee.
func Verify(c *Case, r *Response) []string {
	var v []string
	if len(r.Players) != len(c.Players) {
		return append(v, fmt.Sprintf("player count %d, want %d", len(r.Players), len(c.Players)))
	}

	var esSec, ppSec int64
	var esShots, ppShots float64
	for i, p := range r.Players {
		if p.PlayerID != c.Players[i].PlayerID {
			v = append(v, fmt.Sprintf("players[%d] is %q, want %q", i, p.PlayerID, c.Players[i].PlayerID))
		}
		for _, f := range []struct {
			name string
			x    float64
		}{
			{"toi_es_seconds", p.TOIEsSeconds},
			{"toi_pp_seconds", p.TOIPpSeconds},
			{"shots_es", p.ShotsEs},
			{"shots_pp", p.ShotsPp},
		} {
			if !(f.x >= 0) || math.IsInf(f.x, 0) {
				v = append(v, fmt.Sprintf("players[%d].%s = %v is not a non-negative number", i, f.name, f.x))
			}
		}
		if p.TOIEsSeconds != math.Trunc(p.TOIEsSeconds) || p.TOIPpSeconds != math.Trunc(p.TOIPpSeconds) {
			v = append(v, fmt.Sprintf("players[%d] has fractional TOI", i))
		}
		esSec += int64(p.TOIEsSeconds)
		ppSec += int64(p.TOIPpSeconds)
		esShots += p.ShotsEs
		ppShots += p.ShotsPp
	}

	if want := wholeSeconds(c.Targets.TOIEsSeconds); esSec != want {
		v = append(v, fmt.Sprintf("ES TOI sums to %d, want %d", esSec, want))
	}
	if want := wholeSeconds(c.Targets.TOIPpSeconds); ppSec != want {
		v = append(v, fmt.Sprintf("PP TOI sums to %d, want %d", ppSec, want))
	}
	if !closeTo(esShots, c.Targets.ShotsEs) {
		v = append(v, fmt.Sprintf("ES shots sum to %v, want %v", esShots, c.Targets.ShotsEs))
	}
	if !closeTo(ppShots, c.Targets.ShotsPp) {
		v = append(v, fmt.Sprintf("PP shots sum to %v, want %v", ppShots, c.Targets.ShotsPp))
	}
	return v
}

// Same reports whether reconciling an already reconciled roster changed it.
func Same(a, b []reconcile.PlayerEstimate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PlayerID != b[i].PlayerID ||
			a[i].TOIEsSeconds != b[i].TOIEsSeconds ||
			a[i].TOIPpSeconds != b[i].TOIPpSeconds ||
			!closeTo(a[i].ShotsEs, b[i].ShotsEs) ||
			!closeTo(a[i].ShotsPp, b[i].ShotsPp) {
			return false
		}
	}
	return true
}

// Fallback reports whether any shot field was allocated without a scale.
func Fallback(r *Response) bool {
	return (r.Report.ShotsEs.ScaleApplied == nil && r.Report.ShotsEs.After > 0) ||
		(r.Report.ShotsPp.ScaleApplied == nil && r.Report.ShotsPp.After > 0)
}

func wholeSeconds(x float64) int64 {
	if !(x > 0) {
		return 0
	}
	return int64(math.Round(x))
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) <= shotTolerance*math.Max(1, math.Abs(want))
}
