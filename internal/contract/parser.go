package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yo-lxmmm/teachwise/internal/model"
	"github.com/yo-lxmmm/teachwise/internal/prompt"
)

// ParseFailure reports a decode or schema-validation failure. It always
// carries the original raw text and the failing field so the caller can
// decide between retrying and surfacing an error; nothing is ever coerced
// to a default to paper over a violation.
type ParseFailure struct {
	Variant   prompt.Variant
	Field     string
	Reason    string
	Raw       string
	Retryable bool
}

func (f *ParseFailure) Error() string {
	if f.Field != "" {
		return fmt.Sprintf("parse %s response: %s: %s", f.Variant, f.Field, f.Reason)
	}
	return fmt.Sprintf("parse %s response: %s", f.Variant, f.Reason)
}

// StripFences removes leading and trailing markdown code fences, with or
// without a language tag, including an opening fence that was never closed.
// The result never starts or ends with a fence marker, so stripping twice
// is a no-op.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			// Drop the rest of the fence line, language tag included.
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
			s = strings.TrimPrefix(s, "JSON")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// QuestionPayload is the structured result of the question variant.
type QuestionPayload struct {
	Question               string   `json:"question"`
	Rationale              string   `json:"rationale"`
	ExpectedMisconceptions []string `json:"expectedMisconceptions"`
}

// ScenarioPayload is the structured result of the scenario variant.
type ScenarioPayload struct {
	Student                   model.StudentProfile `json:"student"`
	MisconceptionOptions      []string             `json:"misconceptionOptions"`
	CorrectMisconceptionIndex int                  `json:"correctMisconceptionIndex"`
	Topic                     string               `json:"topic"`
	Difficulty                string               `json:"difficulty"`
}

// ParseQuestion validates raw completion text against the question contract.
func ParseQuestion(raw string) (*QuestionPayload, error) {
	var out QuestionPayload
	if err := parseInto(raw, questionSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseScenario validates raw completion text against the scenario contract,
// including the misconception cross-field invariant.
func ParseScenario(raw string) (*ScenarioPayload, error) {
	var out ScenarioPayload
	if err := parseInto(raw, scenarioSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseEvaluation validates raw completion text against the evaluation contract.
func ParseEvaluation(raw string) (*model.Evaluation, error) {
	var out model.Evaluation
	if err := parseInto(raw, evaluationSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseStudentText accepts the free-text student variant: fences are
// stripped, and any non-empty remainder is the result verbatim.
func ParseStudentText(raw string) (string, error) {
	text := StripFences(raw)
	if text == "" {
		return "", &ParseFailure{
			Variant:   prompt.VariantStudent,
			Reason:    "empty response",
			Raw:       raw,
			Retryable: true,
		}
	}
	return text, nil
}

func parseInto(raw string, s Schema, out any) error {
	clean := StripFences(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return &ParseFailure{
			Variant:   s.Variant,
			Reason:    "invalid JSON: " + err.Error(),
			Raw:       raw,
			Retryable: true,
		}
	}

	if pf := validateFields(s.Variant, doc, s.Fields, ""); pf != nil {
		pf.Raw = raw
		return pf
	}
	if s.Check != nil {
		if pf := s.Check(doc); pf != nil {
			pf.Raw = raw
			return pf
		}
	}

	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return &ParseFailure{
			Variant:   s.Variant,
			Reason:    "decode into result: " + err.Error(),
			Raw:       raw,
			Retryable: true,
		}
	}
	return nil
}

func validateFields(v prompt.Variant, doc map[string]any, fields []Field, path string) *ParseFailure {
	fail := func(name, reason string) *ParseFailure {
		return &ParseFailure{Variant: v, Field: path + name, Reason: reason, Retryable: true}
	}

	for _, f := range fields {
		val, ok := doc[f.Name]
		if !ok || val == nil {
			if f.Optional {
				continue
			}
			return fail(f.Name, "missing required field")
		}

		switch f.Kind {
		case KindString:
			s, ok := val.(string)
			if !ok {
				return fail(f.Name, fmt.Sprintf("expected string, got %T", val))
			}
			if strings.TrimSpace(s) == "" && !f.Optional {
				return fail(f.Name, "empty string")
			}
			if len(f.Enum) > 0 && !contains(f.Enum, s) {
				return fail(f.Name, fmt.Sprintf("%q not one of %s", s, strings.Join(f.Enum, ", ")))
			}

		case KindInt:
			n, ok := val.(float64)
			if !ok {
				return fail(f.Name, fmt.Sprintf("expected integer, got %T", val))
			}
			if n != math.Trunc(n) {
				return fail(f.Name, fmt.Sprintf("expected integer, got %v", n))
			}
			i := int(n)
			if f.Min != nil && i < *f.Min {
				return fail(f.Name, fmt.Sprintf("%d below minimum %d", i, *f.Min))
			}
			if f.Max != nil && i > *f.Max {
				return fail(f.Name, fmt.Sprintf("%d above maximum %d", i, *f.Max))
			}

		case KindBool:
			if _, ok := val.(bool); !ok {
				return fail(f.Name, fmt.Sprintf("expected boolean, got %T", val))
			}

		case KindStringArray:
			arr, ok := val.([]any)
			if !ok {
				return fail(f.Name, fmt.Sprintf("expected array, got %T", val))
			}
			if len(arr) < f.MinItems {
				return fail(f.Name, fmt.Sprintf("expected at least %d entries, got %d", f.MinItems, len(arr)))
			}
			if f.MaxItems > 0 && len(arr) > f.MaxItems {
				return fail(f.Name, fmt.Sprintf("expected at most %d entries, got %d", f.MaxItems, len(arr)))
			}
			for i, e := range arr {
				s, ok := e.(string)
				if !ok {
					return fail(f.Name, fmt.Sprintf("entry %d: expected string, got %T", i, e))
				}
				if strings.TrimSpace(s) == "" {
					return fail(f.Name, fmt.Sprintf("entry %d: empty string", i))
				}
			}

		case KindObject:
			obj, ok := val.(map[string]any)
			if !ok {
				return fail(f.Name, fmt.Sprintf("expected object, got %T", val))
			}
			if pf := validateFields(v, obj, f.Fields, path+f.Name+"."); pf != nil {
				return pf
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
