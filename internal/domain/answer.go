package domain

import (
	"fmt"
	"math"
	"strings"
)

// AnswerKind tags the shape a question accepts
type AnswerKind string

const (
	KindNumber   AnswerKind = "number"
	KindEnum     AnswerKind = "enum"
	KindFreeText AnswerKind = "free_text"
	KindYear     AnswerKind = "year"
	KindList     AnswerKind = "list"
)

const (
	defaultTextMax  = 500
	defaultListMax  = 10
	defaultItemMax  = 100
	defaultScoreMin = 0
	defaultScoreMax = 10
	yearMin         = 1900
	yearMax         = 2100
)

// AnswerSchema declares the accepted shape for one question
type AnswerSchema struct {
	Kind    AnswerKind
	Min     float64  // number bounds, inclusive
	Max     float64
	Allowed []string // enum values
	MaxLen  int      // free text length cap
}

// NumberSchema accepts a number within [min, max]
func NumberSchema(min, max float64) AnswerSchema {
	return AnswerSchema{Kind: KindNumber, Min: min, Max: max}
}

// EnumSchema accepts one of the given strings
func EnumSchema(allowed ...string) AnswerSchema {
	return AnswerSchema{Kind: KindEnum, Allowed: allowed}
}

// TextSchema accepts free text up to maxLen characters
func TextSchema(maxLen int) AnswerSchema {
	return AnswerSchema{Kind: KindFreeText, MaxLen: maxLen}
}

// YearSchema accepts a four digit year
func YearSchema() AnswerSchema {
	return AnswerSchema{Kind: KindYear}
}

// ListSchema accepts up to defaultListMax short strings
func ListSchema() AnswerSchema {
	return AnswerSchema{Kind: KindList}
}

// Validate checks a raw decoded JSON value against the schema and
// returns the coerced value. Text is trimmed and stripped of angle
// brackets before storage.
func (s AnswerSchema) Validate(questionID string, raw any) (any, error) {
	switch s.Kind {
	case KindNumber:
		n, ok := asNumber(raw)
		if !ok {
			return nil, &ValidationError{QuestionID: questionID, Message: "expected a number"}
		}
		if n < s.Min || n > s.Max {
			return nil, &ValidationError{QuestionID: questionID, Message: fmt.Sprintf("number out of range [%g, %g]", s.Min, s.Max)}
		}
		return n, nil

	case KindEnum:
		str, ok := raw.(string)
		if !ok {
			return nil, &ValidationError{QuestionID: questionID, Message: "expected a string"}
		}
		for _, a := range s.Allowed {
			if str == a {
				return str, nil
			}
		}
		return nil, &ValidationError{QuestionID: questionID, Message: "value not in allowed set"}

	case KindFreeText:
		str, ok := raw.(string)
		if !ok {
			return nil, &ValidationError{QuestionID: questionID, Message: "expected a string"}
		}
		maxLen := s.MaxLen
		if maxLen <= 0 {
			maxLen = defaultTextMax
		}
		if len(str) > maxLen {
			return nil, &ValidationError{QuestionID: questionID, Message: fmt.Sprintf("text longer than %d characters", maxLen)}
		}
		return sanitizeText(str), nil

	case KindYear:
		n, ok := asNumber(raw)
		if !ok || n != math.Trunc(n) {
			return nil, &ValidationError{QuestionID: questionID, Message: "expected a whole year"}
		}
		if n < yearMin || n > yearMax {
			return nil, &ValidationError{QuestionID: questionID, Message: "year out of range"}
		}
		return int(n), nil

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			return nil, &ValidationError{QuestionID: questionID, Message: "expected a list of strings"}
		}
		if len(items) > defaultListMax {
			return nil, &ValidationError{QuestionID: questionID, Message: fmt.Sprintf("more than %d items", defaultListMax)}
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			str, ok := item.(string)
			if !ok {
				return nil, &ValidationError{QuestionID: questionID, Message: "expected a list of strings"}
			}
			if len(str) > defaultItemMax {
				return nil, &ValidationError{QuestionID: questionID, Message: fmt.Sprintf("item longer than %d characters", defaultItemMax)}
			}
			out = append(out, sanitizeText(str))
		}
		return out, nil
	}

	return nil, &ValidationError{QuestionID: questionID, Message: "unknown answer kind"}
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

// SchemaRegistry maps question ids to their declared schemas.
// Questions without an explicit schema fall back to the permissive
// default: a bounded score, free text or a short string list.
type SchemaRegistry struct {
	schemas map[string]AnswerSchema
}

// NewSchemaRegistry creates an empty registry
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]AnswerSchema)}
}

// Register declares the schema for a question id
func (r *SchemaRegistry) Register(questionID string, schema AnswerSchema) {
	r.schemas[questionID] = schema
}

// Validate validates a raw answer against the question's schema
func (r *SchemaRegistry) Validate(questionID string, raw any) (any, error) {
	if schema, ok := r.schemas[questionID]; ok {
		return schema.Validate(questionID, raw)
	}
	return validateDefault(questionID, raw)
}

// validateDefault accepts the union any unregistered question allows:
// a score in [0, 10], text up to 500 characters, or a string list.
func validateDefault(questionID string, raw any) (any, error) {
	switch raw.(type) {
	case float64, int, int64:
		return NumberSchema(defaultScoreMin, defaultScoreMax).Validate(questionID, raw)
	case string:
		return TextSchema(defaultTextMax).Validate(questionID, raw)
	case []any:
		return ListSchema().Validate(questionID, raw)
	}
	return nil, &ValidationError{QuestionID: questionID, Message: "unsupported answer type"}
}
