package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/spf13/cobra"
)

type evaluateResult struct {
	Formula        string            `json:"formula"`
	Outcome        scoring.Outcome   `json:"outcome"`
	Award          scoring.Award     `json:"award"`
	MalformedRules map[string]string `json:"malformed_rules,omitempty"`
}

func newEvaluateCmd(output func() formatFlag) *cobra.Command {
	var (
		ff          formulaFlags
		winnerScore int
		loserScore  int
		draw        bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Show the points a formula awards for one result",
		Example: `  scorectl evaluate --template "Blowout Bonus" --winner-score 21 --loser-score 10
  scorectl evaluate --formula formulas.yaml --name League --winner-score 2 --loser-score 2 --draw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if winnerScore < 0 || loserScore < 0 {
				return errors.New("scores must not be negative")
			}
			if draw && winnerScore != loserScore {
				return errors.New("a draw needs equal scores")
			}
			if !draw && winnerScore < loserScore {
				return errors.New("winner score is below loser score")
			}

			formula := scoring.DefaultFormula()
			sf, err := ff.resolve()
			if err != nil {
				return err
			}
			if sf != nil {
				formula = scoring.Compile(*sf)
			}

			outcome := scoring.Outcome{WinnerScore: winnerScore, LoserScore: loserScore, Draw: draw}
			res := evaluateResult{
				Formula:        formula.Name,
				Outcome:        outcome,
				Award:          scoring.Evaluate(formula, outcome),
				MalformedRules: formula.MalformedRules(),
			}

			w := cmd.OutOrStdout()
			if output() == formatJSON {
				return writeJSON(w, res)
			}

			rule := res.Award.MatchedRuleID
			if rule == "" {
				rule = "-"
			}
			fmt.Fprintln(w, title("%s: %d-%d", res.Formula, winnerScore, loserScore))
			fmt.Fprintln(w, renderTable(
				[]string{"Source", "Rule", "Winner points", "Loser points"},
				[][]string{{string(res.Award.Source), rule, strconv.Itoa(res.Award.WinnerPoints), strconv.Itoa(res.Award.LoserPoints)}},
			))
			printMalformed(cmd, res.MalformedRules)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVarP(&winnerScore, "winner-score", "w", 0, "Score of the winning side")
	cmd.Flags().IntVarP(&loserScore, "loser-score", "l", 0, "Score of the losing side")
	cmd.Flags().BoolVar(&draw, "draw", false, "Score the result as a draw")
	return cmd
}

func printMalformed(cmd *cobra.Command, malformed map[string]string) {
	if len(malformed) == 0 {
		return
	}
	ids := make([]string, 0, len(malformed))
	for id := range malformed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("rule %q never matches: %s", id, malformed[id])))
	}
}
