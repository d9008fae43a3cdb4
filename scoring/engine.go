package scoring

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// History is everything stored about a tournament's games.
type History struct {
	EntrantType EntrantType
	Games       []GameRecord
}

// GameStore is the read-only source of game history.
type GameStore interface {
	GameHistory(ctx context.Context, tournamentID int) (History, error)
}

// Report is a computed leaderboard together with the formula that produced it.
type Report struct {
	TournamentID int
	Formula      Formula
	EntrantType  EntrantType
	Result
}

type Engine struct {
	games    GameStore
	resolver *Resolver
}

func NewEngine(games GameStore, resolver *Resolver) *Engine {
	return &Engine{games: games, resolver: resolver}
}

// Compute fetches a tournament's history and formula and aggregates them.
// It holds no state between calls.
func (e *Engine) Compute(ctx context.Context, tournamentID int) (Report, error) {
	var (
		history History
		formula Formula
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := e.games.GameHistory(gctx, tournamentID)
		if err != nil {
			return fmt.Errorf("fetch games for tournament %d: %w", tournamentID, err)
		}
		history = h
		return nil
	})
	g.Go(func() error {
		f, err := e.resolver.Resolve(gctx, tournamentID)
		if err != nil {
			return err
		}
		formula = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return Report{
		TournamentID: tournamentID,
		Formula:      formula,
		EntrantType:  history.EntrantType,
		Result:       Aggregate(formula, history.EntrantType, history.Games),
	}, nil
}

// ComputeStandings returns only the ordered leaderboard.
func (e *Engine) ComputeStandings(ctx context.Context, tournamentID int) ([]Entry, error) {
	r, err := e.Compute(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return r.Entries, nil
}
