package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	standingsSheet = "Standings"
	gamesSheet     = "Games"
)

var standingsHeader = []interface{}{
	"Rank", "Entrant", "Points", "Played", "Wins", "Draws", "Losses", "Score For", "Score Against", "Difference",
}

var gamesHeader = []interface{}{
	"Game", "Winner", "Loser", "Winner Score", "Loser Score", "Draw", "Bye", "Winner Points", "Loser Points", "Source", "Rule",
}

func writeStandingsWorkbook(view *StandingsView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", standingsSheet); err != nil {
		return fmt.Errorf("failed to name standings sheet: %w", err)
	}
	if _, err := f.NewSheet(gamesSheet); err != nil {
		return fmt.Errorf("failed to add games sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	standings := [][]interface{}{standingsHeader}
	for _, e := range view.Entries {
		standings = append(standings, []interface{}{
			e.Rank, e.EntrantName, e.Points, e.GamesPlayed, e.Wins, e.Draws, e.Losses,
			e.ScoreFor, e.ScoreAgainst, e.ScoreDifference,
		})
	}
	if err := writeRows(f, standingsSheet, standings, bold); err != nil {
		return err
	}

	games := [][]interface{}{gamesHeader}
	for _, g := range view.Games {
		o, a := g.Outcome, g.Award
		games = append(games, []interface{}{
			o.GameID, o.WinnerName, o.LoserName, o.WinnerScore, o.LoserScore, o.Draw, o.Bye,
			a.WinnerPoints, a.LoserPoints, string(a.Source), a.MatchedRuleID,
		})
	}
	if err := writeRows(f, gamesSheet, games, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(standingsSheet, "B", "B", 28); err != nil {
		return fmt.Errorf("failed to size entrant column: %w", err)
	}
	if err := f.SetColWidth(gamesSheet, "B", "C", 24); err != nil {
		return fmt.Errorf("failed to size name columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}
