package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/spf13/cobra"
)

type formatFlag string

const (
	formatTable formatFlag = "table"
	formatJSON  formatFlag = "json"
)

// formulaFlags selects the formula a command scores with.
type formulaFlags struct {
	file     string
	name     string
	template string
}

func (f *formulaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "formula", "", "YAML file with one or more formulas")
	cmd.Flags().StringVar(&f.name, "name", "", "Formula to pick from --formula when the file holds several")
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Built-in template to score with (see 'scorectl templates')")
	cmd.MarkFlagsMutuallyExclusive("formula", "template")
}

// resolve returns the selected formula, or nil when none was chosen.
func (f *formulaFlags) resolve() (*models.ScoringFormula, error) {
	switch {
	case f.template != "":
		templates, err := scoring.Templates()
		if err != nil {
			return nil, err
		}
		return pickFormula(templates, f.template, "template")
	case f.file != "":
		data, err := os.ReadFile(f.file)
		if err != nil {
			return nil, fmt.Errorf("read formula file: %w", err)
		}
		formulas, err := scoring.ParseFormulas(data)
		if err != nil {
			return nil, err
		}
		if f.name == "" {
			if len(formulas) != 1 {
				return nil, fmt.Errorf("%s holds %d formulas, choose one with --name", f.file, len(formulas))
			}
			return &formulas[0], nil
		}
		return pickFormula(formulas, f.name, "formula")
	}
	return nil, nil
}

func pickFormula(formulas []models.ScoringFormula, name, kind string) (*models.ScoringFormula, error) {
	names := make([]string, 0, len(formulas))
	for i := range formulas {
		if strings.EqualFold(formulas[i].Name, name) {
			return &formulas[i], nil
		}
		names = append(names, formulas[i].Name)
	}
	return nil, fmt.Errorf("unknown %s %q (available: %s)", kind, name, strings.Join(names, ", "))
}

func newRootCmd() *cobra.Command {
	var format string

	root := &cobra.Command{
		Use:   "scorectl",
		Short: "Evaluate scoring formulas and leaderboards offline",
		Long: `scorectl runs the leaderboard scoring engine against local YAML files.

Use it to check what a formula awards for a result, to compute standings
for a recorded set of games, or to inspect the built-in templates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch formatFlag(format) {
			case formatTable, formatJSON:
				return nil
			}
			return fmt.Errorf("unsupported --output %q (table|json)", format)
		},
	}
	root.PersistentFlags().StringVarP(&format, "output", "o", string(formatTable), "Output format (table|json)")

	out := func() formatFlag { return formatFlag(format) }
	root.AddCommand(
		newEvaluateCmd(out),
		newStandingsCmd(out),
		newTemplatesCmd(out),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
