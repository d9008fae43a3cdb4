package scoring

import (
	"errors"
	"fmt"
	"time"
)

type EntrantType string

const (
	EntrantPlayer EntrantType = "player"
	EntrantTeam   EntrantType = "team"
)

var ErrMalformedGame = errors.New("malformed game record")

// Side is one participant row of a recorded game. PlayerID or TeamID is
// zero when the game does not involve that kind of entrant.
type Side struct {
	PlayerID int    `json:"player_id,omitempty" yaml:"player_id,omitempty"`
	TeamID   int    `json:"team_id,omitempty" yaml:"team_id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Score    int    `json:"score" yaml:"score"`
	IsWinner bool   `json:"is_winner" yaml:"is_winner"`
}

func (s Side) entrantID(t EntrantType) int {
	if t == EntrantTeam {
		return s.TeamID
	}
	return s.PlayerID
}

// GameRecord is a stored game as handed to the engine.
type GameRecord struct {
	ID       int       `json:"id" yaml:"id"`
	PlayedAt time.Time `json:"played_at" yaml:"played_at"`
	Sides    []Side    `json:"sides" yaml:"sides"`
}

// Outcome is the normalized result of one game. For a draw both scores are
// equal and the winner slot holds the side with the lower entrant id.
// For a bye LoserEntrantID is zero.
type Outcome struct {
	GameID          int         `json:"game_id"`
	EntrantType     EntrantType `json:"entrant_type"`
	WinnerEntrantID int         `json:"winner_entrant_id"`
	LoserEntrantID  int         `json:"loser_entrant_id,omitempty"`
	WinnerName      string      `json:"winner_name"`
	LoserName       string      `json:"loser_name,omitempty"`
	WinnerScore     int         `json:"winner_score"`
	LoserScore      int         `json:"loser_score"`
	Draw            bool        `json:"draw"`
	Bye             bool        `json:"bye"`
}

func (o Outcome) ScoreDifferential() int { return o.WinnerScore - o.LoserScore }
func (o Outcome) TotalScore() int        { return o.WinnerScore + o.LoserScore }

// Normalize shapes a recorded game into an Outcome. Draws are detected by
// score equality; the winner flags only break a non-equal result when
// exactly one side carries it, otherwise the higher score wins.
func Normalize(g GameRecord, t EntrantType) (Outcome, error) {
	out := Outcome{GameID: g.ID, EntrantType: t}

	for _, s := range g.Sides {
		if s.entrantID(t) <= 0 {
			return Outcome{}, fmt.Errorf("%w: game %d has a side without a %s id", ErrMalformedGame, g.ID, t)
		}
		if s.Score < 0 {
			return Outcome{}, fmt.Errorf("%w: game %d has a negative score", ErrMalformedGame, g.ID)
		}
	}

	switch len(g.Sides) {
	case 1:
		s := g.Sides[0]
		out.WinnerEntrantID = s.entrantID(t)
		out.WinnerName = s.Name
		out.WinnerScore = s.Score
		out.Bye = true
		return out, nil
	case 2:
	default:
		return Outcome{}, fmt.Errorf("%w: game %d has %d sides", ErrMalformedGame, g.ID, len(g.Sides))
	}

	a, b := g.Sides[0], g.Sides[1]
	if a.entrantID(t) == b.entrantID(t) {
		return Outcome{}, fmt.Errorf("%w: game %d has the same entrant on both sides", ErrMalformedGame, g.ID)
	}

	var winner, loser Side
	switch {
	case a.Score == b.Score:
		out.Draw = true
		winner, loser = a, b
		if b.entrantID(t) < a.entrantID(t) {
			winner, loser = b, a
		}
	case a.IsWinner != b.IsWinner:
		winner, loser = a, b
		if b.IsWinner {
			winner, loser = b, a
		}
	case a.Score > b.Score:
		winner, loser = a, b
	default:
		winner, loser = b, a
	}

	out.WinnerEntrantID = winner.entrantID(t)
	out.WinnerName = winner.Name
	out.WinnerScore = winner.Score
	out.LoserEntrantID = loser.entrantID(t)
	out.LoserName = loser.Name
	out.LoserScore = loser.Score
	return out, nil
}
