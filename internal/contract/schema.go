// Package contract enforces the structured-output contract on raw
// completion text. Each prompt variant declares its expected shape as a
// schema (field names, kinds, cardinalities, cross-field checks) which is
// validated explicitly at the parse boundary instead of trusting whatever
// structure happened to decode.
package contract

import (
	"fmt"
	"strings"

	"github.com/yo-lxmmm/teachwise/internal/model"
	"github.com/yo-lxmmm/teachwise/internal/prompt"
)

// Kind is the expected JSON type of a schema field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindStringArray
	KindObject
)

// Field describes one required (or optional) field of a variant's payload.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool

	// String-array cardinality. MaxItems 0 means unbounded.
	MinItems int
	MaxItems int

	// Integer bounds, inclusive. Nil means unbounded.
	Min *int
	Max *int

	// Allowed values for strings. Empty means any non-empty string.
	Enum []string

	// Nested fields for KindObject.
	Fields []Field
}

// Schema is the static output contract for one prompt variant.
type Schema struct {
	Variant  prompt.Variant
	FreeText bool
	Fields   []Field
	// Check runs cross-field invariants after the field walk succeeds.
	Check func(doc map[string]any) *ParseFailure
}

var questionSchema = Schema{
	Variant: prompt.VariantQuestion,
	Fields: []Field{
		{Name: "question", Kind: KindString},
		{Name: "rationale", Kind: KindString},
		{Name: "expectedMisconceptions", Kind: KindStringArray, MinItems: 1},
	},
}

var scenarioSchema = Schema{
	Variant: prompt.VariantScenario,
	Fields: []Field{
		{Name: "student", Kind: KindObject, Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "background", Kind: KindString},
			{Name: "performanceLevel", Kind: KindString, Enum: model.PerformanceLevels},
			{Name: "actualMisconception", Kind: KindString},
			{Name: "initialResponse", Kind: KindString},
		}},
		{Name: "misconceptionOptions", Kind: KindStringArray,
			MinItems: model.MisconceptionOptionCount, MaxItems: model.MisconceptionOptionCount},
		{Name: "correctMisconceptionIndex", Kind: KindInt,
			Min: ptr(0), Max: ptr(model.MisconceptionOptionCount - 1)},
		{Name: "topic", Kind: KindString, Optional: true},
		{Name: "difficulty", Kind: KindString, Optional: true},
	},
	Check: checkScenarioMisconception,
}

var evaluationSchema = Schema{
	Variant: prompt.VariantEvaluation,
	Fields: []Field{
		// score first: a total outside the rubric sum is the most useful
		// thing to report even when other fields are also missing.
		{Name: "score", Kind: KindInt, Min: ptr(0), Max: ptr(model.MaxSessionScore)},
		{Name: "questioningScore", Kind: KindInt, Min: ptr(0), Max: ptr(model.MaxQuestioningScore)},
		{Name: "correctDiagnosis", Kind: KindBool},
		{Name: "correctMisconception", Kind: KindString},
		{Name: "feedback", Kind: KindString},
		{Name: "improvements", Kind: KindStringArray, MinItems: 1},
	},
}

var studentSchema = Schema{
	Variant:  prompt.VariantStudent,
	FreeText: true,
}

func ptr(v int) *int { return &v }

// checkScenarioMisconception re-checks the cross-field invariant: the option
// at correctMisconceptionIndex must equal the student's actual misconception
// after normalization. A mismatch is a contract violation, not a warning.
func checkScenarioMisconception(doc map[string]any) *ParseFailure {
	student, _ := doc["student"].(map[string]any)
	actual, _ := student["actualMisconception"].(string)
	options, _ := doc["misconceptionOptions"].([]any)
	idx := int(doc["correctMisconceptionIndex"].(float64))

	if idx < 0 || idx >= len(options) {
		return &ParseFailure{
			Variant:   prompt.VariantScenario,
			Field:     "correctMisconceptionIndex",
			Reason:    fmt.Sprintf("index %d out of range for %d options", idx, len(options)),
			Retryable: true,
		}
	}
	marked, _ := options[idx].(string)
	if Normalize(marked) != Normalize(actual) {
		return &ParseFailure{
			Variant: prompt.VariantScenario,
			Field:   "misconceptionOptions",
			Reason: fmt.Sprintf("option %d %q does not match student.actualMisconception %q",
				idx, marked, actual),
			Retryable: true,
		}
	}
	return nil
}

// Normalize lowercases a string and collapses internal whitespace, the
// comparison form used for cross-field misconception matching.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SchemaFor returns the static output contract for a prompt variant.
func SchemaFor(v prompt.Variant) (Schema, bool) {
	switch v {
	case prompt.VariantQuestion:
		return questionSchema, true
	case prompt.VariantScenario:
		return scenarioSchema, true
	case prompt.VariantStudent:
		return studentSchema, true
	case prompt.VariantEvaluation:
		return evaluationSchema, true
	}
	return Schema{}, false
}
