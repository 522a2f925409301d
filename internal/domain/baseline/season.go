// Package baseline blends multiple seasons of skater totals into weighted
// "baseline" rate statistics.
package baseline

import (
	"sort"
	"time"

	"github.com/okian/rinkcast/internal/domain/numeric"
)

// SeasonTotals is one season of aggregate skater totals. TOI is in minutes.
type SeasonTotals struct {
	SeasonID    int     `json:"season_id"` // e.g. 20242025; larger is more recent
	GamesPlayed int     `json:"games_played"`
	TOI         float64 `json:"nst_toi"`
	IXG         float64 `json:"nst_ixg"`
	Goals       float64 `json:"nst_goals"`
	Assists     float64 `json:"nst_total_assists"`
	Shots       float64 `json:"nst_shots"`
	ICF         float64 `json:"nst_icf"`
	IHDCF       float64 `json:"nst_ihdcf"`
	Points      float64 `json:"nst_total_points"`
}

// GameRow is a single game of skater totals used for the recent window.
type GameRow struct {
	Date    time.Time `json:"date"`
	TOI     float64   `json:"nst_toi"`
	IXG     float64   `json:"nst_ixg"`
	Goals   float64   `json:"nst_goals"`
	Assists float64   `json:"nst_total_assists"`
	Shots   float64   `json:"nst_shots"`
	ICF     float64   `json:"nst_icf"`
	IHDCF   float64   `json:"nst_ihdcf"`
	Points  float64   `json:"nst_total_points"`
}

// Totals views a single game as a one-game season.
func (g GameRow) Totals() SeasonTotals {
	return SeasonTotals{
		GamesPlayed: 1,
		TOI:         g.TOI,
		IXG:         g.IXG,
		Goals:       g.Goals,
		Assists:     g.Assists,
		Shots:       g.Shots,
		ICF:         g.ICF,
		IHDCF:       g.IHDCF,
		Points:      g.Points,
	}
}

// Field selects one statistic from a season row.
type Field func(SeasonTotals) float64

// Field selectors for SeasonTotals.
var (
	FieldTOI         Field = func(s SeasonTotals) float64 { return s.TOI }
	FieldIXG         Field = func(s SeasonTotals) float64 { return s.IXG }
	FieldGoals       Field = func(s SeasonTotals) float64 { return s.Goals }
	FieldAssists     Field = func(s SeasonTotals) float64 { return s.Assists }
	FieldShots       Field = func(s SeasonTotals) float64 { return s.Shots }
	FieldICF         Field = func(s SeasonTotals) float64 { return s.ICF }
	FieldIHDCF       Field = func(s SeasonTotals) float64 { return s.IHDCF }
	FieldPoints      Field = func(s SeasonTotals) float64 { return s.Points }
	FieldGamesPlayed Field = func(s SeasonTotals) float64 { return float64(s.GamesPlayed) }
)

// value reads f from s, normalizing degenerate numbers to 0.
func (f Field) value(s SeasonTotals) float64 {
	return numeric.NonNegative(f(s))
}

// SortSeasons orders seasons most recent first, in place.
func SortSeasons(seasons []SeasonTotals) {
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].SeasonID > seasons[j].SeasonID
	})
}
