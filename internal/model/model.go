package model

import "fmt"

// CommunicationStyle describes how a simulated student prefers to engage.
type CommunicationStyle string

const (
	StyleVerbal  CommunicationStyle = "verbal"
	StyleVisual  CommunicationStyle = "visual"
	StyleHandsOn CommunicationStyle = "hands_on"
)

var validStyles = map[CommunicationStyle]bool{
	StyleVerbal:  true,
	StyleVisual:  true,
	StyleHandsOn: true,
}

// GradeLevel is the grade band a scenario targets.
type GradeLevel string

const (
	GradeElementary GradeLevel = "K-5"
	GradeMiddle     GradeLevel = "6-8"
	GradeHigh       GradeLevel = "9-12"
)

var validGrades = map[GradeLevel]bool{
	GradeElementary: true,
	GradeMiddle:     true,
	GradeHigh:       true,
}

// IsValidGradeLevel checks if a grade band name is recognized.
func IsValidGradeLevel(g string) bool {
	return validGrades[GradeLevel(g)]
}

// DialMin and DialMax bound every numeric persona dial.
const (
	DialMin = 1
	DialMax = 10
)

// InvalidPersonaError reports a persona dial or style outside its valid domain.
type InvalidPersonaError struct {
	Field string
	Value any
}

func (e *InvalidPersonaError) Error() string {
	return fmt.Sprintf("invalid persona: %s = %v (dials must be %d-%d, style must be verbal, visual or hands_on)",
		e.Field, e.Value, DialMin, DialMax)
}

// Persona holds the behavioral dial settings for a simulated student.
// Construct with NewPersona; values are immutable afterwards.
type Persona struct {
	ConceptualReadiness    int                `json:"conceptual_readiness"`
	MetacognitiveAwareness int                `json:"metacognitive_awareness"`
	Persistence            int                `json:"persistence"`
	CommunicationStyle     CommunicationStyle `json:"communication_style"`
	ConfidenceLevel        int                `json:"confidence_level"`
}

// NewPersona validates all five dials and returns the persona.
// Out-of-range values are an error, never clamped.
func NewPersona(readiness, metacognition, persistence, confidence int, style CommunicationStyle) (Persona, error) {
	dials := []struct {
		name  string
		value int
	}{
		{"conceptual_readiness", readiness},
		{"metacognitive_awareness", metacognition},
		{"persistence", persistence},
		{"confidence_level", confidence},
	}
	for _, d := range dials {
		if d.value < DialMin || d.value > DialMax {
			return Persona{}, &InvalidPersonaError{Field: d.name, Value: d.value}
		}
	}
	if !validStyles[style] {
		return Persona{}, &InvalidPersonaError{Field: "communication_style", Value: style}
	}
	return Persona{
		ConceptualReadiness:    readiness,
		MetacognitiveAwareness: metacognition,
		Persistence:            persistence,
		CommunicationStyle:     style,
		ConfidenceLevel:        confidence,
	}, nil
}

// Validate re-checks an already-populated persona, e.g. one decoded from a request body.
func (p Persona) Validate() error {
	_, err := NewPersona(p.ConceptualReadiness, p.MetacognitiveAwareness, p.Persistence, p.ConfidenceLevel, p.CommunicationStyle)
	return err
}

// PerformanceLevel is the generated student's overall tier.
type PerformanceLevel string

const (
	PerformanceStruggling PerformanceLevel = "struggling"
	PerformanceAverage    PerformanceLevel = "average"
	PerformanceAdvanced   PerformanceLevel = "advanced"
)

// PerformanceLevels lists the recognized tiers in schema order.
var PerformanceLevels = []string{
	string(PerformanceStruggling),
	string(PerformanceAverage),
	string(PerformanceAdvanced),
}

// Speaker identifies who produced a transcript message.
type Speaker string

const (
	SpeakerTeacher Speaker = "teacher"
	SpeakerStudent Speaker = "student"
)

// Message is one turn in a scenario transcript.
type Message struct {
	Speaker Speaker `json:"sender"`
	Text    string  `json:"message"`
}

// StudentProfile is the generated student identity inside a scenario.
type StudentProfile struct {
	Name                string           `json:"name"`
	Background          string           `json:"background"`
	PerformanceLevel    PerformanceLevel `json:"performanceLevel"`
	ActualMisconception string           `json:"actualMisconception"`
	InitialResponse     string           `json:"initialResponse"`
}

// MisconceptionOptionCount is the fixed size of the diagnosis option list.
const MisconceptionOptionCount = 4

// Scenario is the full state of one teaching-practice session. It is
// created by scenario generation, mutated only by transcript appends,
// and closed by attaching an Evaluation.
type Scenario struct {
	GradeLevel       GradeLevel     `json:"gradeLevel"`
	Subject          string         `json:"subject"`
	LearningOutcomes string         `json:"learningOutcomes"`
	KeyConcepts      string         `json:"concepts"`
	PracticeQuestion string         `json:"practiceQuestion"`
	Persona          Persona        `json:"persona"`
	Student          StudentProfile `json:"student"`

	MisconceptionOptions      []string `json:"misconceptionOptions"`
	CorrectMisconceptionIndex int      `json:"correctMisconceptionIndex"`

	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`

	Transcript []Message `json:"transcript,omitempty"`

	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// AppendMessage adds one turn to the transcript, preserving order.
func (s *Scenario) AppendMessage(speaker Speaker, text string) {
	s.Transcript = append(s.Transcript, Message{Speaker: speaker, Text: text})
}

// Rubric component ceilings. Their sum is the maximum session score.
const (
	RubricDiagnosticAccuracy = 35
	RubricQuestioningQuality = 30
	RubricInterventionEffect = 25
	RubricStrategyUse        = 10

	MaxSessionScore     = RubricDiagnosticAccuracy + RubricQuestioningQuality + RubricInterventionEffect + RubricStrategyUse
	MaxQuestioningScore = 10
)

// Evaluation is the terminal scoring result for a session.
type Evaluation struct {
	CorrectDiagnosis     bool     `json:"correctDiagnosis"`
	Score                int      `json:"score"`
	QuestioningScore     int      `json:"questioningScore"`
	CorrectMisconception string   `json:"correctMisconception"`
	Feedback             string   `json:"feedback"`
	Improvements         []string `json:"improvements"`
}
