package models

import (
	"strconv"
	"time"
)

// ValueKind tags the variants a snapshot value can take.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindTime
	KindList
)

// Value is one entry of a profile snapshot: a tagged union over the types a
// startup attribute can project to. The evaluator switches exhaustively on
// Kind; anything it cannot interpret for a given field type evaluates false.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	List []string
}

func StringValue(s string) Value    { return Value{Kind: KindString, Str: s} }
func NumberValue(f float64) Value   { return Value{Kind: KindNumber, Num: f} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func TimeValue(t time.Time) Value   { return Value{Kind: KindTime, Time: t} }
func ListValue(list []string) Value { return Value{Kind: KindList, List: list} }

// Snapshot is the ephemeral flat projection of a startup's profile used for
// rule evaluation. It is rebuilt on every evaluation and never persisted;
// unset attributes are omitted so rules on missing keys fail closed.
type Snapshot map[string]Value

// Strings renders the value as the set of strings used for select-type
// membership checks.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindString:
		return []string{v.Str}
	case KindList:
		return v.List
	case KindBool:
		return []string{strconv.FormatBool(v.Bool)}
	case KindNumber:
		return []string{strconv.FormatFloat(v.Num, 'f', -1, 64)}
	default:
		return nil
	}
}

// Number extracts a float from the value, reporting whether the conversion
// is meaningful.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		parsed, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Instant extracts a timestamp from the value, reporting whether the
// conversion is meaningful. String values accept RFC 3339 or YYYY-MM-DD.
func (v Value) Instant() (time.Time, bool) {
	switch v.Kind {
	case KindTime:
		return v.Time, true
	case KindString:
		return ParseInstant(v.Str)
	default:
		return time.Time{}, false
	}
}

// ParseInstant parses rule and snapshot date encodings: RFC 3339 first,
// then a bare date interpreted as midnight UTC.
func ParseInstant(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
