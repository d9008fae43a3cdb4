package scoring

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/tournament-standings/models"
)

//go:embed templates.yaml
var templatesYAML []byte

// Templates returns the built-in formulas shipped with the service.
// Every call decodes a fresh copy.
func Templates() ([]models.ScoringFormula, error) {
	out, err := ParseFormulas(templatesYAML)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].IsTemplate = true
	}
	return out, nil
}

// ParseFormulas decodes a YAML list of formulas.
func ParseFormulas(data []byte) ([]models.ScoringFormula, error) {
	var out []models.ScoringFormula
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode formulas: %w", err)
	}
	for i := range out {
		if out[i].Rules == nil {
			out[i].Rules = models.ScoringRules{}
		}
	}
	return out, nil
}
