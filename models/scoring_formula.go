package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Condition types understood by the scoring engine.
const (
	ConditionWinnerScore       = "winner_score"
	ConditionLoserScore        = "loser_score"
	ConditionScoreDifferential = "score_differential"
	ConditionTotalScore        = "total_score"
)

// Condition operators understood by the scoring engine.
const (
	OperatorEquals             = "equals"
	OperatorGreaterThan        = "greater_than"
	OperatorLessThan           = "less_than"
	OperatorGreaterThanOrEqual = "greater_than_or_equal"
	OperatorLessThanOrEqual    = "less_than_or_equal"
	OperatorBetween            = "between"
)

// ScoringFormula is the stored form of a leaderboard scoring formula.
type ScoringFormula struct {
	ID                  int          `json:"id" db:"id" yaml:"id,omitempty"`
	Name                string       `json:"name" db:"name" yaml:"name"`
	Description         *string      `json:"description,omitempty" db:"description" yaml:"description,omitempty"`
	DefaultWinnerPoints int          `json:"default_winner_points" db:"default_winner_points" yaml:"default_winner_points"`
	DefaultLoserPoints  int          `json:"default_loser_points" db:"default_loser_points" yaml:"default_loser_points"`
	DrawPoints          *int         `json:"draw_points,omitempty" db:"draw_points" yaml:"draw_points,omitempty"`
	Rules               ScoringRules `json:"rules" db:"rules" yaml:"rules"`
	IsTemplate          bool         `json:"is_template" db:"is_template" yaml:"-"`
	OwnerID             *int         `json:"owner_id,omitempty" db:"owner_id" yaml:"-"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at" yaml:"-"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at" yaml:"-"`
}

// ScoringRule awards points when its condition holds for a game.
type ScoringRule struct {
	ID           string        `json:"id" yaml:"id"`
	Condition    RuleCondition `json:"condition" yaml:"condition"`
	WinnerPoints int           `json:"winner_points" yaml:"winner_points"`
	LoserPoints  int           `json:"loser_points" yaml:"loser_points"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// RuleCondition is the loosely typed wire form of a rule condition.
// The scoring package compiles it into a typed condition.
type RuleCondition struct {
	Type        string         `json:"type" yaml:"type"`
	Operator    string         `json:"operator" yaml:"operator"`
	Value       ConditionValue `json:"value" yaml:"value"`
	SecondValue *float64       `json:"second_value,omitempty" yaml:"second_value,omitempty"`
}

// ScoringRules is stored as a JSONB column.
type ScoringRules []ScoringRule

// Value returns a string so lib/pq sends text rather than bytea.
func (r ScoringRules) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *ScoringRules) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = ScoringRules{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for scoring rules", src)
	}
	var rules []ScoringRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("failed to decode scoring rules: %w", err)
	}
	if rules == nil {
		rules = []ScoringRule{}
	}
	*r = rules
	return nil
}

// ConditionValue holds a rule value that is either a single number or a list
// of numbers. Anything else is kept verbatim so that a broken rule survives a
// round trip and is reported as malformed instead of failing the whole formula.
type ConditionValue struct {
	numbers []float64
	list    bool
	raw     json.RawMessage
}

func NewScalarValue(v float64) ConditionValue {
	return ConditionValue{numbers: []float64{v}}
}

func NewListValue(vs ...float64) ConditionValue {
	return ConditionValue{numbers: append([]float64(nil), vs...), list: true}
}

// Scalar returns the value when it is a single number (not a list).
func (v ConditionValue) Scalar() (float64, bool) {
	if v.list || len(v.numbers) != 1 {
		return 0, false
	}
	return v.numbers[0], true
}

// Pair returns the bounds when the value is a list of exactly two numbers.
func (v ConditionValue) Pair() (float64, float64, bool) {
	if !v.list || len(v.numbers) != 2 {
		return 0, 0, false
	}
	return v.numbers[0], v.numbers[1], true
}

func (v ConditionValue) IsEmpty() bool {
	return len(v.numbers) == 0 && !v.list && len(v.raw) == 0
}

func (v ConditionValue) MarshalJSON() ([]byte, error) {
	switch {
	case len(v.raw) > 0:
		return v.raw, nil
	case v.list:
		if v.numbers == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.numbers)
	case len(v.numbers) == 1:
		return json.Marshal(v.numbers[0])
	default:
		return []byte("null"), nil
	}
}

func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	*v = ConditionValue{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var single float64
	if err := json.Unmarshal(trimmed, &single); err == nil {
		v.numbers = []float64{single}
		return nil
	}

	var many []float64
	if err := json.Unmarshal(trimmed, &many); err == nil {
		v.numbers = many
		v.list = true
		return nil
	}

	v.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (v ConditionValue) MarshalYAML() (interface{}, error) {
	switch {
	case len(v.raw) > 0:
		return string(v.raw), nil
	case v.list:
		return v.numbers, nil
	case len(v.numbers) == 1:
		return v.numbers[0], nil
	default:
		return nil, nil
	}
}

func (v *ConditionValue) UnmarshalYAML(node *yaml.Node) error {
	*v = ConditionValue{}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		var single float64
		if err := node.Decode(&single); err == nil {
			v.numbers = []float64{single}
			return nil
		}
	case yaml.SequenceNode:
		var many []float64
		if err := node.Decode(&many); err == nil {
			v.numbers = many
			v.list = true
			return nil
		}
	}

	raw, err := json.Marshal(node.Value)
	if err != nil {
		return errors.New("unreadable condition value")
	}
	v.raw = raw
	return nil
}
