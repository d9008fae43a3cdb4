package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Dosada05/tournament-standings/achievements"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fixture is a tournament's recorded games in YAML. An inline formula is
// used unless one is chosen with flags.
type fixture struct {
	EntrantType scoring.EntrantType    `yaml:"entrant_type"`
	Formula     *models.ScoringFormula `yaml:"formula"`
	Games       []scoring.GameRecord   `yaml:"games"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read games file: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode games file: %w", err)
	}
	switch fx.EntrantType {
	case "":
		fx.EntrantType = scoring.EntrantPlayer
	case scoring.EntrantPlayer, scoring.EntrantTeam:
	default:
		return nil, fmt.Errorf("entrant_type must be %q or %q, got %q", scoring.EntrantPlayer, scoring.EntrantTeam, fx.EntrantType)
	}
	return &fx, nil
}

type standingsResult struct {
	Formula      string                     `json:"formula"`
	Result       scoring.Result             `json:"result"`
	Achievements []achievements.Achievement `json:"achievements,omitempty"`
}

func newStandingsCmd(output func() formatFlag) *cobra.Command {
	var (
		ff          formulaFlags
		gamesFile   string
		withBadges  bool
		showSkipped bool
	)

	cmd := &cobra.Command{
		Use:     "standings",
		Short:   "Compute a leaderboard from a YAML file of games",
		Example: `  scorectl standings --games spring-open.yaml --template League --achievements`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gamesFile == "" {
				return errors.New("--games is required")
			}
			fx, err := loadFixture(gamesFile)
			if err != nil {
				return err
			}

			formula := scoring.DefaultFormula()
			sf, err := ff.resolve()
			if err != nil {
				return err
			}
			if sf == nil {
				sf = fx.Formula
			}
			if sf != nil {
				formula = scoring.Compile(*sf)
			}

			res := standingsResult{
				Formula: formula.Name,
				Result:  scoring.Aggregate(formula, fx.EntrantType, fx.Games),
			}
			if withBadges {
				res.Achievements = achievements.Evaluate(res.Result, achievements.Catalog)
			}

			w := cmd.OutOrStdout()
			if output() == formatJSON {
				return writeJSON(w, res)
			}

			rows := make([][]string, 0, len(res.Result.Entries))
			for _, e := range res.Result.Entries {
				rows = append(rows, []string{
					strconv.Itoa(e.Rank), e.EntrantName, strconv.Itoa(e.Points),
					strconv.Itoa(e.GamesPlayed), strconv.Itoa(e.Wins), strconv.Itoa(e.Draws), strconv.Itoa(e.Losses),
					strconv.Itoa(e.ScoreFor), strconv.Itoa(e.ScoreAgainst), strconv.Itoa(e.ScoreDifference),
				})
			}
			fmt.Fprintln(w, title("Standings (%s, %d games)", res.Formula, len(res.Result.Games)))
			fmt.Fprintln(w, renderTable(
				[]string{"#", "Entrant", "Pts", "GP", "W", "D", "L", "SF", "SA", "Diff"},
				rows,
			))

			if len(res.Result.Skipped) > 0 {
				fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d game(s) skipped", len(res.Result.Skipped))))
				if showSkipped {
					for _, s := range res.Result.Skipped {
						fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  game %d: %s", s.GameID, s.Reason)))
					}
				}
			}

			if withBadges && len(res.Achievements) > 0 {
				badgeRows := make([][]string, 0, len(res.Achievements))
				for _, a := range res.Achievements {
					badgeRows = append(badgeRows, []string{a.EntrantName, a.Code, a.Rarity, a.Reason})
				}
				fmt.Fprintln(w, title("Achievements"))
				fmt.Fprintln(w, renderTable([]string{"Entrant", "Badge", "Rarity", "Reason"}, badgeRows))
			}
			printMalformed(cmd, formula.MalformedRules())
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&gamesFile, "games", "g", "", "YAML file with entrant_type, optional formula and games")
	cmd.Flags().BoolVar(&withBadges, "achievements", false, "Also list earned achievements")
	cmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "List why skipped games were rejected")
	return cmd
}
