// Package situation decodes play-by-play situation codes into on-ice counts
// and classifies a team's strength state.
package situation

import (
	"errors"
	"fmt"
)

// Sentinel kinds for situation errors.
var (
	ErrInvalidCode = errors.New("invalid situation code")
)

const codeLength = 4

// Strength is a team's strength state.
type Strength string

// Strength states.
const (
	EvenStrength Strength = "es"
	PowerPlay    Strength = "pp"
	PenaltyKill  Strength = "pk"
)

// Digits are the on-ice counts encoded by a situation code, in code order
// away-goalie, away-skaters, home-skaters, home-goalie.
type Digits struct {
	AwayGoalie  int `json:"away_goalie"`
	AwaySkaters int `json:"away_skaters"`
	HomeSkaters int `json:"home_skaters"`
	HomeGoalie  int `json:"home_goalie"`
}

// ParseDigits decodes a 4-character situation code such as "1551".
func ParseDigits(code string) (Digits, error) {
	if len(code) != codeLength {
		return Digits{}, fmt.Errorf("%w: %q: want %d digits", ErrInvalidCode, code, codeLength)
	}
	var d [codeLength]int
	for i := 0; i < codeLength; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return Digits{}, fmt.Errorf("%w: %q: non-digit at %d", ErrInvalidCode, code, i)
		}
		d[i] = int(c - '0')
	}
	return Digits{AwayGoalie: d[0], AwaySkaters: d[1], HomeSkaters: d[2], HomeGoalie: d[3]}, nil
}

// String renders the digits back into code form.
func (d Digits) String() string {
	return fmt.Sprintf("%d%d%d%d", d.AwayGoalie, d.AwaySkaters, d.HomeSkaters, d.HomeGoalie)
}

// StrengthForTeam classifies teamSideID's strength by comparing skater
// counts. The team is home iff teamSideID equals homeTeamID; any other id is
// treated as the away side. Goalie digits are not considered, so an empty
// net with an extra attacker reads as a power play.
func StrengthForTeam(d Digits, teamSideID, homeTeamID, awayTeamID string) Strength {
	own, opp := d.AwaySkaters, d.HomeSkaters
	if teamSideID == homeTeamID {
		own, opp = d.HomeSkaters, d.AwaySkaters
	}
	switch {
	case own > opp:
		return PowerPlay
	case own < opp:
		return PenaltyKill
	default:
		return EvenStrength
	}
}

// IsEmptyNet reports whether the given side has pulled its goalie.
func IsEmptyNet(d Digits, home bool) bool {
	if home {
		return d.HomeGoalie == 0
	}
	return d.AwayGoalie == 0
}
