package baseline

import (
	"time"

	"github.com/okian/rinkcast/internal/domain/decay"
)

// DefaultRecentTauDays is the decay constant of the recent-form window.
const DefaultRecentTauDays = 30

const hoursPerDay = 24

// RateStat names a tracked rate and how to build it from season rows.
type RateStat struct {
	Name  string
	Numer Field
	Denom Field
	// Scale converts Rate into display units, e.g. 60 for per-60 rates over
	// TOI minutes.
	Scale float64
}

// TrackedStats are the rate statistics carried in every baseline payload.
var TrackedStats = []RateStat{
	{Name: "nst_ixg_per_60", Numer: FieldIXG, Denom: FieldTOI, Scale: 60},
	{Name: "nst_goals_per_60", Numer: FieldGoals, Denom: FieldTOI, Scale: 60},
	{Name: "nst_shots_per_60", Numer: FieldShots, Denom: FieldTOI, Scale: 60},
	{Name: "nst_assists_per_60", Numer: FieldAssists, Denom: FieldTOI, Scale: 60},
	{Name: "nst_icf_per_60", Numer: FieldICF, Denom: FieldTOI, Scale: 60},
	{Name: "nst_ihdcf_per_60", Numer: FieldIHDCF, Denom: FieldTOI, Scale: 60},
	{Name: "nst_points_per_60", Numer: FieldPoints, Denom: FieldTOI, Scale: 60},
	{Name: "nst_toi_per_gp", Numer: FieldTOI, Denom: FieldGamesPlayed, Scale: 1},
}

// PayloadInput is everything needed to build one player's baseline.
type PayloadInput struct {
	PlayerID     string
	SnapshotDate time.Time
	// RowsAll are individual game rows; only games on or before SnapshotDate
	// feed the recent window.
	RowsAll []GameRow
	// SeasonTotals need not be sorted.
	SeasonTotals  []SeasonTotals
	RecentTauDays float64
}

// RecentRate is a decay-weighted rate over recent games.
type RecentRate struct {
	Rate                float64 `json:"rate"`
	EffectiveSampleSize float64 `json:"effective_sample_size"`
	Games               int     `json:"games"`
}

// Payload is a player's baseline snapshot keyed by stat name.
type Payload struct {
	PlayerID     string                  `json:"player_id"`
	SnapshotDate time.Time               `json:"snapshot_date"`
	SeasonsUsed  int                     `json:"seasons_used"`
	Win3yr       map[string]*BlendResult `json:"win_3yr"`
	WinCareer    map[string]*BlendResult `json:"win_career"`
	WinRecent    map[string]*RecentRate  `json:"win_recent,omitempty"`
}

// Scaled returns the display value of a stat from a window, and false when
// the stat has no blend.
func Scaled(window map[string]*BlendResult, name string) (float64, bool) {
	br, ok := window[name]
	if !ok || br == nil {
		return 0, false
	}
	for _, st := range TrackedStats {
		if st.Name == name {
			return br.Rate * st.Scale, true
		}
	}
	return br.Rate, true
}

// BuildBaselinePayload computes the 3-year, career and recent windows for
// every tracked stat. Stats without a positive denominator are omitted. A
// stat with a positive denominator but a zero numerator is kept with
// Numer and Rate both 0.
func BuildBaselinePayload(in PayloadInput) Payload {
	seasons := make([]SeasonTotals, len(in.SeasonTotals))
	copy(seasons, in.SeasonTotals)
	SortSeasons(seasons)

	p := Payload{
		PlayerID:     in.PlayerID,
		SnapshotDate: in.SnapshotDate,
		SeasonsUsed:  len(seasons),
		Win3yr:       make(map[string]*BlendResult, len(TrackedStats)),
		WinCareer:    make(map[string]*BlendResult, len(TrackedStats)),
	}
	career := CareerWeights(seasons)
	for _, st := range TrackedStats {
		if br := ComputeBlendFromSeasons(seasons, st.Numer, st.Denom); br != nil {
			p.Win3yr[st.Name] = br
		}
		if br := BlendWithWeights(seasons, career, st.Numer, st.Denom); br != nil {
			p.WinCareer[st.Name] = br
		}
	}

	if len(in.RowsAll) > 0 {
		p.WinRecent = recentWindow(in)
	}
	return p
}

func recentWindow(in PayloadInput) map[string]*RecentRate {
	tau := in.RecentTauDays
	if !(tau > 0) {
		tau = DefaultRecentTauDays
	}
	out := make(map[string]*RecentRate, len(TrackedStats))
	for _, st := range TrackedStats {
		samples := make([]decay.RateSample, 0, len(in.RowsAll))
		for _, row := range in.RowsAll {
			age := in.SnapshotDate.Sub(row.Date).Hours() / hoursPerDay
			if age < 0 {
				continue
			}
			totals := row.Totals()
			samples = append(samples, decay.RateSample{
				Numer:   st.Numer.value(totals),
				Denom:   st.Denom.value(totals),
				DaysAgo: age,
			})
		}
		r := decay.RateBlend(samples, tau)
		if r.Mean == nil {
			continue
		}
		out[st.Name] = &RecentRate{
			Rate:                *r.Mean,
			EffectiveSampleSize: r.EffectiveSampleSize,
			Games:               r.SampleCount,
		}
	}
	return out
}
