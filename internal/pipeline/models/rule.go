package models

import (
	"encoding/json"
	"log/slog"
	"time"

	id "launchpad/pkg/domain"
)

// FieldType is the closed set of profile field kinds a rule can target.
type FieldType string

const (
	FieldTypeMultipleSelect FieldType = "multiple_select"
	FieldTypeSingleSelect   FieldType = "single_select"
	FieldTypeDatepicker     FieldType = "datepicker"
	FieldTypeNumericInput   FieldType = "numeric_input"
)

// IsSelect reports whether the field type carries an options enumeration.
func (f FieldType) IsSelect() bool {
	return f == FieldTypeMultipleSelect || f == FieldTypeSingleSelect
}

// Valid reports whether f is a known field type. Unknown types are kept in
// the store but always evaluate false.
func (f FieldType) Valid() bool {
	switch f {
	case FieldTypeMultipleSelect, FieldTypeSingleSelect, FieldTypeDatepicker, FieldTypeNumericInput:
		return true
	}
	return false
}

// Comparison is one operator of a rule. A rule holds one or more and passes
// if any of them passes (logical OR).
type Comparison string

const (
	ComparisonEqual       Comparison = "equal"
	ComparisonGreaterThan Comparison = "greater_than"
	ComparisonLessThan    Comparison = "less_than"
)

// Valid reports whether c is a known comparison operator.
func (c Comparison) Valid() bool {
	switch c {
	case ComparisonEqual, ComparisonGreaterThan, ComparisonLessThan:
		return true
	}
	return false
}

// Option is one value↔label entry of a select-type rule.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Rule is a per-program eligibility condition. When a startup's snapshot
// satisfies it, the startup's card relocates to the rule's target stage.
type Rule struct {
	ID          id.RuleID    `json:"id"`
	ProgramID   id.ProgramID `json:"program_id"`
	StageID     id.StageID   `json:"stage_id"`
	Key         string       `json:"key"`
	FieldType   FieldType    `json:"field_type"`
	Rule        string       `json:"rule"`
	Comparisons []Comparison `json:"comparation_type"`
	Options     []Option     `json:"options,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// DecodeComparisons parses the JSON-encoded comparation_type column.
// Malformed JSON is logged and degraded to treating the raw string as a
// single already-typed operator; the decoder never fails the read path.
func DecodeComparisons(raw string, logger *slog.Logger) []Comparison {
	if raw == "" {
		return nil
	}
	var decoded []Comparison
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		if logger != nil {
			logger.Warn("malformed comparation_type, using raw value", "raw", raw, "error", err)
		}
		return []Comparison{Comparison(raw)}
	}
	return decoded
}

// DecodeOptions parses the JSON-encoded options column with the same
// degradation policy as DecodeComparisons.
func DecodeOptions(raw string, logger *slog.Logger) []Option {
	if raw == "" || raw == "null" {
		return nil
	}
	var decoded []Option
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		if logger != nil {
			logger.Warn("malformed options, using raw value", "raw", raw, "error", err)
		}
		return []Option{{Value: raw, Label: raw}}
	}
	return decoded
}

// EncodeComparisons serializes operators for the comparation_type column.
func EncodeComparisons(comparisons []Comparison) string {
	encoded, err := json.Marshal(comparisons)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// EncodeOptions serializes options for the options column.
func EncodeOptions(options []Option) string {
	if options == nil {
		return "null"
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return "null"
	}
	return string(encoded)
}
