package reconcile

import (
	"sort"

	"github.com/okian/rinkcast/internal/domain/situation"
)

// ShotEvent is one shot attempt from a play-by-play feed.
type ShotEvent struct {
	TeamID        string `json:"team_id"`
	PlayerID      string `json:"player_id"`
	SituationCode string `json:"situation_code"`
}

// ShiftSegment is a stretch of a player's ice time under one situation.
type ShiftSegment struct {
	TeamID        string  `json:"team_id"`
	PlayerID      string  `json:"player_id"`
	Seconds       float64 `json:"seconds"`
	SituationCode string  `json:"situation_code"`
}

// GameEvents is the raw material for strength-segmented totals.
type GameEvents struct {
	HomeTeamID string         `json:"home_team_id"`
	AwayTeamID string         `json:"away_team_id"`
	Shots      []ShotEvent    `json:"shots"`
	Shifts     []ShiftSegment `json:"shifts"`
}

// StrengthTotals are a team's totals in one strength state.
type StrengthTotals struct {
	TOISeconds float64 `json:"toi_seconds"`
	Shots      float64 `json:"shots"`
}

// TeamAggregate splits one team's game by strength state.
type TeamAggregate struct {
	TeamID  string                     `json:"team_id"`
	ES      StrengthTotals             `json:"es"`
	PP      StrengthTotals             `json:"pp"`
	PK      StrengthTotals             `json:"pk"`
	Players map[string]*PlayerEstimate `json:"players"`
	// Skipped counts events whose situation code could not be parsed.
	Skipped int `json:"skipped"`
}

// Targets returns the ES and PP totals as reconciliation targets.
func (a *TeamAggregate) Targets() TeamTargets {
	return TeamTargets{
		TOIEsSeconds: a.ES.TOISeconds,
		TOIPpSeconds: a.PP.TOISeconds,
		ShotsEs:      a.ES.Shots,
		ShotsPp:      a.PP.Shots,
	}
}

// Roster returns per-player ES/PP tallies ordered by player id.
func (a *TeamAggregate) Roster() []PlayerEstimate {
	ids := make([]string, 0, len(a.Players))
	for id := range a.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]PlayerEstimate, len(ids))
	for i, id := range ids {
		out[i] = *a.Players[id]
	}
	return out
}

func (a *TeamAggregate) player(id string) *PlayerEstimate {
	p, ok := a.Players[id]
	if !ok {
		p = &PlayerEstimate{PlayerID: id}
		a.Players[id] = p
	}
	return p
}

func (a *TeamAggregate) bucket(s situation.Strength) *StrengthTotals {
	switch s {
	case situation.PowerPlay:
		return &a.PP
	case situation.PenaltyKill:
		return &a.PK
	default:
		return &a.ES
	}
}

// AggregateByStrength classifies every shot and shift by the acting team's
// strength state and sums them per team. Events for teams outside the game
// are ignored; events with malformed situation codes are counted in Skipped.
// PK time and shots are totalled at team level only.
func AggregateByStrength(g GameEvents) map[string]*TeamAggregate {
	out := map[string]*TeamAggregate{
		g.HomeTeamID: {TeamID: g.HomeTeamID, Players: map[string]*PlayerEstimate{}},
		g.AwayTeamID: {TeamID: g.AwayTeamID, Players: map[string]*PlayerEstimate{}},
	}

	classify := func(teamID, code string) (*TeamAggregate, situation.Strength, bool) {
		agg, ok := out[teamID]
		if !ok {
			return nil, "", false
		}
		d, err := situation.ParseDigits(code)
		if err != nil {
			agg.Skipped++
			return nil, "", false
		}
		return agg, situation.StrengthForTeam(d, teamID, g.HomeTeamID, g.AwayTeamID), true
	}

	for _, sh := range g.Shifts {
		agg, st, ok := classify(sh.TeamID, sh.SituationCode)
		if !ok || !(sh.Seconds > 0) {
			continue
		}
		agg.bucket(st).TOISeconds += sh.Seconds
		switch st {
		case situation.EvenStrength:
			agg.player(sh.PlayerID).TOIEsSeconds += sh.Seconds
		case situation.PowerPlay:
			agg.player(sh.PlayerID).TOIPpSeconds += sh.Seconds
		}
	}
	for _, ev := range g.Shots {
		agg, st, ok := classify(ev.TeamID, ev.SituationCode)
		if !ok {
			continue
		}
		agg.bucket(st).Shots++
		switch st {
		case situation.EvenStrength:
			agg.player(ev.PlayerID).ShotsEs++
		case situation.PowerPlay:
			agg.player(ev.PlayerID).ShotsPp++
		}
	}
	return out
}
