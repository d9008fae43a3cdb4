package scoring

// AwardSource names what decided the points of a game.
type AwardSource string

const (
	SourceRule         AwardSource = "rule"
	SourceDefault      AwardSource = "default"
	SourceDrawPoints   AwardSource = "draw_points"
	SourceDrawFallback AwardSource = "draw_fallback"
)

// Award is the points given to each side of one game. For a draw both
// sides are listed, winner slot first, and usually receive the same amount.
type Award struct {
	WinnerPoints  int         `json:"winner_points"`
	LoserPoints   int         `json:"loser_points"`
	MatchedRuleID string      `json:"matched_rule_id,omitempty"`
	Source        AwardSource `json:"source"`
}

// Evaluate scores one outcome with f. Exactly one of a rule, the draw
// points, the draw fallback or the defaults decides the award. It never
// fails: rules that cannot be understood simply do not match.
func Evaluate(f Formula, o Outcome) Award {
	if o.Draw {
		return evaluateDraw(f)
	}

	for _, r := range f.Rules {
		if r.When == nil || !r.When.Matches(o) {
			continue
		}
		return Award{
			WinnerPoints:  r.WinnerPoints,
			LoserPoints:   r.LoserPoints,
			MatchedRuleID: r.ID,
			Source:        SourceRule,
		}
	}

	return Award{
		WinnerPoints: f.DefaultWinnerPoints,
		LoserPoints:  f.DefaultLoserPoints,
		Source:       SourceDefault,
	}
}

func evaluateDraw(f Formula) Award {
	for _, r := range f.Rules {
		if r.When != nil && IsDrawSentinel(r.When) {
			return Award{
				WinnerPoints:  r.WinnerPoints,
				LoserPoints:   r.LoserPoints,
				MatchedRuleID: r.ID,
				Source:        SourceRule,
			}
		}
	}
	if f.DrawPoints != nil {
		return Award{
			WinnerPoints: *f.DrawPoints,
			LoserPoints:  *f.DrawPoints,
			Source:       SourceDrawPoints,
		}
	}
	return Award{
		WinnerPoints: f.DefaultLoserPoints,
		LoserPoints:  f.DefaultLoserPoints,
		Source:       SourceDrawFallback,
	}
}
