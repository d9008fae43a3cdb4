package main

import (
	"fmt"
	"strconv"

	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTemplatesCmd(output func() formatFlag) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in formula templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := scoring.Templates()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case asYAML:
				// Round-trips into --formula.
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(templates); err != nil {
					return err
				}
				return enc.Close()
			case output() == formatJSON:
				return writeJSON(w, templates)
			}

			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				description := ""
				if t.Description != nil {
					description = *t.Description
				}
				rows = append(rows, []string{
					t.Name,
					fmt.Sprintf("%d/%d", t.DefaultWinnerPoints, t.DefaultLoserPoints),
					optionalInt(t.DrawPoints),
					strconv.Itoa(len(t.Rules)),
					description,
				})
			}
			fmt.Fprintln(w, renderTable([]string{"Name", "Win/Loss", "Draw", "Rules", "Description"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the templates as a YAML formula file")
	return cmd
}
