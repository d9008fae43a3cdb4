package scoring

import "github.com/Dosada05/tournament-standings/models"

const defaultFormulaName = "Default"

// Rule is a compiled scoring rule.
type Rule struct {
	ID           string
	When         Condition
	WinnerPoints int
	LoserPoints  int
	Description  string
}

// Formula is the compiled, read-only form of a scoring formula.
// ID is zero for the built-in default.
type Formula struct {
	ID                  int
	Name                string
	DefaultWinnerPoints int
	DefaultLoserPoints  int
	DrawPoints          *int
	Rules               []Rule
}

// DefaultFormula is used when a tournament has no formula of its own:
// one point for a win, nothing otherwise.
func DefaultFormula() Formula {
	return Formula{
		Name:                defaultFormulaName,
		DefaultWinnerPoints: 1,
		DefaultLoserPoints:  0,
	}
}

func (f Formula) IsDefault() bool {
	return f.ID == 0 && f.Name == defaultFormulaName && len(f.Rules) == 0
}

// Compile converts a stored formula into its evaluable form. Rules that
// cannot be understood are kept in place as never-matching rules.
func Compile(sf models.ScoringFormula) Formula {
	f := Formula{
		ID:                  sf.ID,
		Name:                sf.Name,
		DefaultWinnerPoints: sf.DefaultWinnerPoints,
		DefaultLoserPoints:  sf.DefaultLoserPoints,
		Rules:               make([]Rule, 0, len(sf.Rules)),
	}
	if sf.DrawPoints != nil {
		dp := *sf.DrawPoints
		f.DrawPoints = &dp
	}
	for _, r := range sf.Rules {
		f.Rules = append(f.Rules, Rule{
			ID:           r.ID,
			When:         CompileCondition(r.Condition),
			WinnerPoints: r.WinnerPoints,
			LoserPoints:  r.LoserPoints,
			Description:  r.Description,
		})
	}
	return f
}

// MalformedRules lists the rules of f that can never match, keyed by rule id.
func (f Formula) MalformedRules() map[string]string {
	out := make(map[string]string)
	for _, r := range f.Rules {
		if inv, ok := r.When.(Invalid); ok {
			out[r.ID] = inv.Reason
		}
	}
	return out
}
