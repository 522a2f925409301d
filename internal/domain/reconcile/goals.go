package reconcile

import "github.com/okian/rinkcast/internal/domain/numeric"

// FinishingContext describes shooter finishing and the opposing goalie.
type FinishingContext struct {
	ShootingPct        map[string]float64 `json:"shooting_pct"`
	DefaultShootingPct float64            `json:"default_shooting_pct"`
	GoalieSvProj       float64            `json:"goalie_sv_proj"`
	LeagueSv           float64            `json:"league_sv"`
}

// PlayerGoals is a player's projected goals from reconciled shots.
type PlayerGoals struct {
	PlayerID string  `json:"player_id"`
	Shots    float64 `json:"shots"`
	Goals    float64 `json:"goals"`
}

// ExpectedGoals projects goals as (ES + PP shots) * shooting% adjusted by the
// goalie finishing multiplier. Players without a finite shooting% use the
// default.
func ExpectedGoals(players []PlayerEstimate, fc FinishingContext) []PlayerGoals {
	mult := numeric.GoalieFinishMult(fc.GoalieSvProj, fc.LeagueSv)
	out := make([]PlayerGoals, len(players))
	for i, p := range players {
		pct, ok := fc.ShootingPct[p.PlayerID]
		if !ok || !numeric.IsFinite(pct) {
			pct = fc.DefaultShootingPct
		}
		shots := numeric.NonNegative(p.ShotsEs) + numeric.NonNegative(p.ShotsPp)
		out[i] = PlayerGoals{
			PlayerID: p.PlayerID,
			Shots:    shots,
			Goals:    shots * numeric.Clip(pct, 0, 1) * mult,
		}
	}
	return out
}
