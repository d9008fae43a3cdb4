package scoring

import (
	"fmt"
	"math"

	"github.com/Dosada05/tournament-standings/models"
)

// Field is the outcome value a condition inspects.
type Field int

const (
	FieldWinnerScore Field = iota + 1
	FieldLoserScore
	FieldScoreDifferential
	FieldTotalScore
)

func (f Field) String() string {
	switch f {
	case FieldWinnerScore:
		return models.ConditionWinnerScore
	case FieldLoserScore:
		return models.ConditionLoserScore
	case FieldScoreDifferential:
		return models.ConditionScoreDifferential
	case FieldTotalScore:
		return models.ConditionTotalScore
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

func parseField(s string) (Field, bool) {
	switch s {
	case models.ConditionWinnerScore:
		return FieldWinnerScore, true
	case models.ConditionLoserScore:
		return FieldLoserScore, true
	case models.ConditionScoreDifferential:
		return FieldScoreDifferential, true
	case models.ConditionTotalScore:
		return FieldTotalScore, true
	default:
		return 0, false
	}
}

// of returns NaN for an unknown field so every comparison fails.
func (f Field) of(o Outcome) float64 {
	switch f {
	case FieldWinnerScore:
		return float64(o.WinnerScore)
	case FieldLoserScore:
		return float64(o.LoserScore)
	case FieldScoreDifferential:
		return float64(o.ScoreDifferential())
	case FieldTotalScore:
		return float64(o.TotalScore())
	default:
		return math.NaN()
	}
}

// Condition is a closed set of predicates over a game outcome.
type Condition interface {
	Matches(o Outcome) bool
	String() string
	condition()
}

type Equals struct {
	On    Field
	Value float64
}

type GreaterThan struct {
	On    Field
	Value float64
}

type LessThan struct {
	On    Field
	Value float64
}

type GreaterOrEqual struct {
	On    Field
	Value float64
}

type LessOrEqual struct {
	On    Field
	Value float64
}

// Between is inclusive on both bounds.
type Between struct {
	On        Field
	Low, High float64
}

// Invalid stands in for a rule that could not be understood. It never matches.
type Invalid struct {
	Reason string
}

func (c Equals) Matches(o Outcome) bool         { return c.On.of(o) == c.Value }
func (c GreaterThan) Matches(o Outcome) bool    { return c.On.of(o) > c.Value }
func (c LessThan) Matches(o Outcome) bool       { return c.On.of(o) < c.Value }
func (c GreaterOrEqual) Matches(o Outcome) bool { return c.On.of(o) >= c.Value }
func (c LessOrEqual) Matches(o Outcome) bool    { return c.On.of(o) <= c.Value }
func (c Invalid) Matches(Outcome) bool          { return false }

func (c Between) Matches(o Outcome) bool {
	v := c.On.of(o)
	return c.Low <= v && v <= c.High
}

func (c Equals) String() string         { return fmt.Sprintf("%s == %g", c.On, c.Value) }
func (c GreaterThan) String() string    { return fmt.Sprintf("%s > %g", c.On, c.Value) }
func (c LessThan) String() string       { return fmt.Sprintf("%s < %g", c.On, c.Value) }
func (c GreaterOrEqual) String() string { return fmt.Sprintf("%s >= %g", c.On, c.Value) }
func (c LessOrEqual) String() string    { return fmt.Sprintf("%s <= %g", c.On, c.Value) }
func (c Between) String() string        { return fmt.Sprintf("%g <= %s <= %g", c.Low, c.On, c.High) }
func (c Invalid) String() string        { return "invalid: " + c.Reason }

func (Equals) condition()         {}
func (GreaterThan) condition()    {}
func (LessThan) condition()       {}
func (GreaterOrEqual) condition() {}
func (LessOrEqual) condition()    {}
func (Between) condition()        {}
func (Invalid) condition()        {}

// IsDrawSentinel reports whether c is the legacy "winner_score equals 0"
// condition that older formulas use to mean "this game was a draw".
// Deprecated: the normalizer's draw flag is authoritative; the sentinel is
// only honoured for draws.
func IsDrawSentinel(c Condition) bool {
	eq, ok := c.(Equals)
	return ok && eq.On == FieldWinnerScore && eq.Value == 0
}

// CompileCondition turns the wire form of a condition into a typed one.
// It never fails: anything it cannot read becomes Invalid.
func CompileCondition(raw models.RuleCondition) Condition {
	field, ok := parseField(raw.Type)
	if !ok {
		return Invalid{Reason: fmt.Sprintf("unknown condition type %q", raw.Type)}
	}

	if raw.Operator == models.OperatorBetween {
		low, high, ok := raw.Value.Pair()
		if !ok && raw.SecondValue != nil {
			low, ok = raw.Value.Scalar()
			high = *raw.SecondValue
		}
		if !ok {
			return Invalid{Reason: "between needs two bounds"}
		}
		if !finite(low) || !finite(high) || low > high {
			return Invalid{Reason: fmt.Sprintf("between bounds %g..%g are not ordered", low, high)}
		}
		return Between{On: field, Low: low, High: high}
	}

	v, ok := raw.Value.Scalar()
	if !ok || !finite(v) {
		if raw.Operator == "" {
			return Invalid{Reason: "missing operator"}
		}
		return Invalid{Reason: fmt.Sprintf("operator %q needs a single numeric value", raw.Operator)}
	}

	switch raw.Operator {
	case models.OperatorEquals:
		return Equals{On: field, Value: v}
	case models.OperatorGreaterThan:
		return GreaterThan{On: field, Value: v}
	case models.OperatorLessThan:
		return LessThan{On: field, Value: v}
	case models.OperatorGreaterThanOrEqual:
		return GreaterOrEqual{On: field, Value: v}
	case models.OperatorLessThanOrEqual:
		return LessOrEqual{On: field, Value: v}
	case "":
		return Invalid{Reason: "missing operator"}
	default:
		return Invalid{Reason: fmt.Sprintf("unknown operator %q", raw.Operator)}
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
