package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func player(id int, name string, score int) Side {
	return Side{PlayerID: id, Name: name, Score: score}
}

func game(id, day int, sides ...Side) GameRecord {
	return GameRecord{ID: id, PlayedAt: day0.AddDate(0, 0, day), Sides: sides}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		game GameRecord
		typ  EntrantType
		want Outcome
	}{
		{
			name: "higher score wins",
			game: game(1, 0, player(2, "Bob", 4), player(1, "Ann", 6)),
			typ:  EntrantPlayer,
			want: Outcome{GameID: 1, EntrantType: EntrantPlayer, WinnerEntrantID: 1, WinnerName: "Ann", WinnerScore: 6, LoserEntrantID: 2, LoserName: "Bob", LoserScore: 4},
		},
		{
			name: "single flag decides",
			game: game(2, 0, Side{PlayerID: 1, Name: "Ann", Score: 70, IsWinner: true}, player(2, "Bob", 72)),
			typ:  EntrantPlayer,
			want: Outcome{GameID: 2, EntrantType: EntrantPlayer, WinnerEntrantID: 1, WinnerName: "Ann", WinnerScore: 70, LoserEntrantID: 2, LoserName: "Bob", LoserScore: 72},
		},
		{
			name: "equal scores are a draw even when flagged",
			game: game(3, 0, Side{PlayerID: 7, Name: "Gus", Score: 6, IsWinner: true}, player(3, "Cat", 6)),
			typ:  EntrantPlayer,
			want: Outcome{GameID: 3, EntrantType: EntrantPlayer, WinnerEntrantID: 3, WinnerName: "Cat", WinnerScore: 6, LoserEntrantID: 7, LoserName: "Gus", LoserScore: 6, Draw: true},
		},
		{
			name: "both flagged falls back to score",
			game: game(4, 0, Side{PlayerID: 1, Score: 1, IsWinner: true}, Side{PlayerID: 2, Score: 3, IsWinner: true}),
			typ:  EntrantPlayer,
			want: Outcome{GameID: 4, EntrantType: EntrantPlayer, WinnerEntrantID: 2, WinnerScore: 3, LoserEntrantID: 1, LoserScore: 1},
		},
		{
			name: "team identity",
			game: game(5, 0, Side{PlayerID: 1, TeamID: 10, Name: "Reds", Score: 2}, Side{PlayerID: 2, TeamID: 20, Name: "Blues", Score: 0}),
			typ:  EntrantTeam,
			want: Outcome{GameID: 5, EntrantType: EntrantTeam, WinnerEntrantID: 10, WinnerName: "Reds", WinnerScore: 2, LoserEntrantID: 20, LoserName: "Blues"},
		},
		{
			name: "bye",
			game: game(6, 0, player(4, "Dan", 0)),
			typ:  EntrantPlayer,
			want: Outcome{GameID: 6, EntrantType: EntrantPlayer, WinnerEntrantID: 4, WinnerName: "Dan", Bye: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.game, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		game GameRecord
		typ  EntrantType
	}{
		{"no sides", game(1, 0), EntrantPlayer},
		{"three sides", game(2, 0, player(1, "a", 1), player(2, "b", 2), player(3, "c", 3)), EntrantPlayer},
		{"missing team id", game(3, 0, player(1, "a", 1), player(2, "b", 2)), EntrantTeam},
		{"negative score", game(4, 0, player(1, "a", -1), player(2, "b", 2)), EntrantPlayer},
		{"same entrant twice", game(5, 0, player(1, "a", 1), player(1, "a", 2)), EntrantPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.game, tt.typ)
			assert.ErrorIs(t, err, ErrMalformedGame)
		})
	}
}

func TestOutcomeDerivedFields(t *testing.T) {
	o := Outcome{WinnerScore: 10, LoserScore: 2}
	assert.Equal(t, 8, o.ScoreDifferential())
	assert.Equal(t, 12, o.TotalScore())
}
