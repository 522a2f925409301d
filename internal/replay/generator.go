package replay

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/rinkcast/internal/domain/reconcile"
)

// Typical NHL team totals per game.
const (
	teamESSeconds = 5 * 3000.0 // five skaters across ~50 minutes of even strength
	teamPPSeconds = 5 * 240.0
	teamShotsES   = 26.0
	teamShotsPP   = 4.0
	minPlayers    = 2
)

// Generate builds n rosters from seed. Roughly one in eight rosters has no
// shot estimates at all, and one in sixteen no PP time, so the fallback paths
// are exercised.
func Generate(seed uint64, n, maxPlayers int) []Case {
	if maxPlayers < minPlayers {
		maxPlayers = minPlayers
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Case, n)
	for i := range out {
		out[i] = generateCase(rng, i, maxPlayers)
	}
	return out
}

func generateCase(rng *rand.Rand, i, maxPlayers int) Case {
	size := minPlayers + rng.IntN(maxPlayers-minPlayers+1)
	noShots := rng.IntN(8) == 0
	noPP := rng.IntN(16) == 0

	players := make([]reconcile.PlayerEstimate, size)
	for j := range players {
		p := reconcile.PlayerEstimate{
			PlayerID:     fmt.Sprintf("p%03d", j),
			TOIEsSeconds: jitter(rng, teamESSeconds/float64(size), 0.5),
		}
		if !noPP && rng.IntN(3) > 0 {
			p.TOIPpSeconds = jitter(rng, teamPPSeconds/float64(size), 0.8)
		}
		if !noShots {
			p.ShotsEs = jitter(rng, teamShotsES/float64(size), 0.7)
			p.ShotsPp = jitter(rng, teamShotsPP/float64(size), 0.9)
		}
		players[j] = p
	}

	return Case{
		ID:      fmt.Sprintf("case-%05d", i),
		GameID:  fmt.Sprintf("20240%05d", 20000+i),
		TeamID:  fmt.Sprintf("T%02d", rng.IntN(32)),
		Players: players,
		Targets: reconcile.TeamTargets{
			TOIEsSeconds: jitter(rng, teamESSeconds, 0.1),
			TOIPpSeconds: jitter(rng, teamPPSeconds, 0.5),
			ShotsEs:      jitter(rng, teamShotsES, 0.3),
			ShotsPp:      jitter(rng, teamShotsPP, 0.6),
		},
	}
}

// jitter returns mean scaled by a uniform factor in [1-spread, 1+spread],
// rounded to a tenth and floored at zero.
func jitter(rng *rand.Rand, mean, spread float64) float64 {
	v := mean * (1 + spread*(2*rng.Float64()-1))
	return math.Max(0, math.Round(v*10)/10)
}
