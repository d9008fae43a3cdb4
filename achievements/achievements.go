package achievements

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Dosada05/tournament-standings/scoring"
)

// Badge is a static achievement definition. Every threshold key must be
// met for the badge to be awarded.
type Badge struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `json:"threshold"`
}

// Threshold keys.
const (
	MinGames    = "min_games"
	MinWins     = "min_wins"
	MinStreak   = "min_streak"
	MinShutouts = "min_shutouts"
	MaxLosses   = "max_losses"
	MaxRank     = "max_rank"
)

var Catalog = []Badge{
	{
		Code:        "FIRST_WIN",
		Name:        "First Victory",
		Description: "Won a game",
		Rarity:      "common",
		Threshold:   map[string]int64{MinWins: 1},
	},
	{
		Code:        "HAT_TRICK",
		Name:        "Hat Trick",
		Description: "Won three games in a row",
		Rarity:      "rare",
		Threshold:   map[string]int64{MinStreak: 3},
	},
	{
		Code:        "SHUTOUT",
		Name:        "Clean Sheet",
		Description: "Won a game without the opponent scoring",
		Rarity:      "rare",
		Threshold:   map[string]int64{MinShutouts: 1},
	},
	{
		Code:        "UNDEFEATED",
		Name:        "Undefeated",
		Description: "Played at least three games without a loss",
		Rarity:      "epic",
		Threshold:   map[string]int64{MinGames: 3, MaxLosses: 0},
	},
	{
		Code:        "IRONMAN",
		Name:        "Ironman",
		Description: "Played ten games",
		Rarity:      "common",
		Threshold:   map[string]int64{MinGames: 10},
	},
	{
		Code:        "LEADER",
		Name:        "Top of the Table",
		Description: "Leads the standings",
		Rarity:      "legendary",
		Threshold:   map[string]int64{MaxRank: 1, MinGames: 1},
	},
}

// Progress is what an entrant has done in one tournament.
type Progress struct {
	EntrantID   int
	EntrantName string
	GamesPlayed int64
	Wins        int64
	Losses      int64
	BestStreak  int64
	Shutouts    int64
	Rank        int64
}

// Achievement is a badge earned by an entrant.
type Achievement struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	EntrantID   int    `json:"entrant_id"`
	EntrantName string `json:"entrant_name"`
	Reason      string `json:"reason"`
}

// Track derives per-entrant progress from a computed leaderboard. Games
// must be in play order, which is how scoring.Aggregate returns them.
func Track(res scoring.Result) map[int]*Progress {
	progress := make(map[int]*Progress, len(res.Entries))
	for _, e := range res.Entries {
		progress[e.EntrantID] = &Progress{
			EntrantID:   e.EntrantID,
			EntrantName: e.EntrantName,
			GamesPlayed: int64(e.GamesPlayed),
			Wins:        int64(e.Wins),
			Losses:      int64(e.Losses),
			Rank:        int64(e.Rank),
		}
	}

	streak := make(map[int]int64)
	for _, g := range res.Games {
		o := g.Outcome
		if o.Draw {
			streak[o.WinnerEntrantID] = 0
			streak[o.LoserEntrantID] = 0
			continue
		}
		streak[o.WinnerEntrantID]++
		if p, ok := progress[o.WinnerEntrantID]; ok {
			p.BestStreak = max(p.BestStreak, streak[o.WinnerEntrantID])
			if !o.Bye && o.LoserScore == 0 {
				p.Shutouts++
			}
		}
		if !o.Bye {
			streak[o.LoserEntrantID] = 0
		}
	}
	return progress
}

// Evaluate returns every badge earned in a tournament, ordered by entrant
// id and then badge code.
func Evaluate(res scoring.Result, catalog []Badge) []Achievement {
	out := []Achievement{}
	for _, p := range Track(res) {
		for _, b := range catalog {
			if !meetsThreshold(p, b.Threshold) {
				continue
			}
			out = append(out, Achievement{
				Code:        b.Code,
				Name:        b.Name,
				Description: b.Description,
				Rarity:      b.Rarity,
				EntrantID:   p.EntrantID,
				EntrantName: p.EntrantName,
				Reason:      describe(b.Threshold),
			})
		}
	}
	slices.SortFunc(out, func(a, b Achievement) int {
		if c := cmp.Compare(a.EntrantID, b.EntrantID); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}

// meetsThreshold rejects unknown keys so a typo never hands out a badge.
func meetsThreshold(p *Progress, req map[string]int64) bool {
	if len(req) == 0 {
		return false
	}
	for key, required := range req {
		switch key {
		case MinGames:
			if p.GamesPlayed < required {
				return false
			}
		case MinWins:
			if p.Wins < required {
				return false
			}
		case MinStreak:
			if p.BestStreak < required {
				return false
			}
		case MinShutouts:
			if p.Shutouts < required {
				return false
			}
		case MaxLosses:
			if p.Losses > required {
				return false
			}
		case MaxRank:
			if p.Rank == 0 || p.Rank > required {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func describe(req map[string]int64) string {
	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name, bound, _ := strings.Cut(k, "_")
		op := ">="
		if name == "max" {
			op = "<="
		}
		parts = append(parts, fmt.Sprintf("%s %s %d", bound, op, req[k]))
	}
	return strings.Join(parts, ", ")
}
