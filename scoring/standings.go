package scoring

import (
	"cmp"
	"slices"
)

// Entry is one row of a leaderboard.
type Entry struct {
	Rank            int    `json:"rank"`
	EntrantID       int    `json:"entrant_id"`
	EntrantName     string `json:"entrant_name"`
	Points          int    `json:"points"`
	GamesPlayed     int    `json:"games_played"`
	Wins            int    `json:"wins"`
	Draws           int    `json:"draws"`
	Losses          int    `json:"losses"`
	ScoreFor        int    `json:"score_for"`
	ScoreAgainst    int    `json:"score_against"`
	ScoreDifference int    `json:"score_difference"`
}

// ScoredGame pairs a normalized game with the points it produced.
type ScoredGame struct {
	Outcome Outcome `json:"outcome"`
	Award   Award   `json:"award"`
}

// SkippedGame is a stored game that could not be normalized.
type SkippedGame struct {
	GameID int    `json:"game_id"`
	Reason string `json:"reason"`
}

type Result struct {
	Entries []Entry       `json:"entries"`
	Games   []ScoredGame  `json:"games"`
	Skipped []SkippedGame `json:"skipped"`
}

// Aggregate folds a game history through f and returns the ordered
// leaderboard. Games are processed in (PlayedAt, ID) order regardless of the
// order they are passed in. The input slice is not modified.
func Aggregate(f Formula, t EntrantType, games []GameRecord) Result {
	ordered := slices.Clone(games)
	slices.SortStableFunc(ordered, func(a, b GameRecord) int {
		if c := a.PlayedAt.Compare(b.PlayedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	res := Result{
		Entries: []Entry{},
		Games:   make([]ScoredGame, 0, len(ordered)),
		Skipped: []SkippedGame{},
	}
	index := make(map[int]*Entry)
	entry := func(id int, name string) *Entry {
		e, ok := index[id]
		if !ok {
			e = &Entry{EntrantID: id}
			index[id] = e
		}
		if name != "" {
			e.EntrantName = name
		}
		return e
	}

	for _, g := range ordered {
		o, err := Normalize(g, t)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedGame{GameID: g.ID, Reason: err.Error()})
			continue
		}
		a := Evaluate(f, o)
		res.Games = append(res.Games, ScoredGame{Outcome: o, Award: a})

		w := entry(o.WinnerEntrantID, o.WinnerName)
		w.GamesPlayed++
		w.Points += a.WinnerPoints
		w.ScoreFor += o.WinnerScore
		w.ScoreAgainst += o.LoserScore

		if o.Bye {
			w.Wins++
			continue
		}

		l := entry(o.LoserEntrantID, o.LoserName)
		l.GamesPlayed++
		l.Points += a.LoserPoints
		l.ScoreFor += o.LoserScore
		l.ScoreAgainst += o.WinnerScore

		if o.Draw {
			w.Draws++
			l.Draws++
		} else {
			w.Wins++
			l.Losses++
		}
	}

	for _, e := range index {
		e.ScoreDifference = e.ScoreFor - e.ScoreAgainst
		res.Entries = append(res.Entries, *e)
	}
	SortEntries(res.Entries)
	return res
}

// SortEntries orders a leaderboard and assigns 1-based ranks: points desc,
// win rate desc, games played desc, name asc, then entrant id asc.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, compareEntries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	// wins_a/games_a vs wins_b/games_b without division.
	if c := cmp.Compare(b.Wins*a.GamesPlayed, a.Wins*b.GamesPlayed); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GamesPlayed, a.GamesPlayed); c != 0 {
		return c
	}
	if c := cmp.Compare(a.EntrantName, b.EntrantName); c != 0 {
		return c
	}
	return cmp.Compare(a.EntrantID, b.EntrantID)
}
