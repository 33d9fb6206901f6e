// Package prompt renders the four prompt variants sent to the completion
// backend. Templates live on an embedded filesystem and are bound to typed
// data so the behavioral-directive tables and example-output blocks stay
// auditable and testable away from transport code.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/yo-lxmmm/teachwise/internal/i18n"
	"github.com/yo-lxmmm/teachwise/internal/model"
)

var (
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
	roleOverrideRegex       = regexp.MustCompile(`(?i)</?\s*(system|assistant)\b[^>]*>`)
)

// Variant identifies one of the four prompt/response contract variants.
type Variant string

const (
	VariantQuestion   Variant = "question"
	VariantScenario   Variant = "scenario"
	VariantStudent    Variant = "student"
	VariantEvaluation Variant = "evaluation"
)

var templateFiles = map[Variant]string{
	VariantQuestion:   "templates/question.tmpl",
	VariantScenario:   "templates/scenario.tmpl",
	VariantStudent:    "templates/student_response.tmpl",
	VariantEvaluation: "templates/evaluation.tmpl",
}

// TranscriptWindow is how many trailing transcript messages the
// student-response prompt carries. Early context is dropped first as the
// conversation grows; persona and misconception framing always stay intact.
const TranscriptWindow = 6

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Variant]*template.Template
)

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Variant]*template.Template)
		for v, file := range templateFiles {
			content, err := templateFS.ReadFile(file)
			if err != nil {
				loadErr = errors.New("read prompt template " + file + ": " + err.Error())
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = errors.New("parse prompt template " + file + ": " + err.Error())
				return
			}
			templates[v] = tmpl
		}
	})
	return loadErr
}

func render(v Variant, lang i18n.Language, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	directive, err := i18n.PromptDirective(lang)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if directive != "" {
		buf.WriteString(directive)
		buf.WriteString("\n\n")
	}
	if err := templates[v].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", v, err)
	}
	return buf.String(), nil
}

// QuestionData holds template data for the question-generation prompt.
type QuestionData struct {
	GradeLevel       string
	Subject          string
	LearningOutcomes string
	KeyConcepts      string
}

// BuildQuestionPrompt renders the prompt that asks the backend for an
// open-ended, misconception-revealing practice question.
func BuildQuestionPrompt(grade model.GradeLevel, subject, outcomes, concepts string, lang i18n.Language) (string, error) {
	data := QuestionData{
		GradeLevel:       string(grade),
		Subject:          sanitize(subject),
		LearningOutcomes: sanitize(outcomes),
		KeyConcepts:      sanitize(concepts),
	}
	return render(VariantQuestion, lang, data)
}

// ScenarioData holds template data for the scenario-generation prompt.
type ScenarioData struct {
	GradeLevel       string
	Subject          string
	LearningOutcomes string
	KeyConcepts      string
	PracticeQuestion string

	ConceptualReadiness    int
	MetacognitiveAwareness int
	Persistence            int
	CommunicationStyle     string
	ConfidenceLevel        int

	ConfidenceDirective    string
	PersistenceDirective   string
	MetacognitionDirective string
	ReadinessDirective     string
	StyleDirective         string
}

// BuildScenarioPrompt renders the prompt that asks the backend for a full
// scenario payload: student identity, misconception options and the correct
// index, shaped by the persona's behavioral directives.
func BuildScenarioPrompt(grade model.GradeLevel, subject, outcomes, concepts, question string, p model.Persona, lang i18n.Language) (string, error) {
	data := ScenarioData{
		GradeLevel:       string(grade),
		Subject:          sanitize(subject),
		LearningOutcomes: sanitize(outcomes),
		KeyConcepts:      sanitize(concepts),
		PracticeQuestion: sanitize(question),

		ConceptualReadiness:    p.ConceptualReadiness,
		MetacognitiveAwareness: p.MetacognitiveAwareness,
		Persistence:            p.Persistence,
		CommunicationStyle:     string(p.CommunicationStyle),
		ConfidenceLevel:        p.ConfidenceLevel,

		ConfidenceDirective:    ConfidenceDirective(p.ConfidenceLevel),
		PersistenceDirective:   PersistenceDirective(p.Persistence),
		MetacognitionDirective: MetacognitionDirective(p.MetacognitiveAwareness),
		ReadinessDirective:     ReadinessDirective(p.ConceptualReadiness),
		StyleDirective:         StyleDirective(p.CommunicationStyle),
	}
	return render(VariantScenario, lang, data)
}

// StudentData holds template data for the student-response prompt.
type StudentData struct {
	Name             string
	PerformanceLevel string
	Topic            string
	Background       string
	Misconception    string
	PracticeQuestion string
	Difficulty       string

	ConceptualReadiness    int
	MetacognitiveAwareness int
	Persistence            int
	CommunicationStyle     string
	ConfidenceLevel        int

	ConfidenceDirective    string
	PersistenceDirective   string
	MetacognitionDirective string
	ReadinessDirective     string
	StyleDirective         string

	RecentConversation string
	TeacherMessage     string
}

// BuildStudentPrompt renders the role-play prompt for the simulated student.
// Only the last TranscriptWindow messages of history make it into the prompt.
func BuildStudentPrompt(scen *model.Scenario, teacherMessage string, history []model.Message, lang i18n.Language) (string, error) {
	p := scen.Persona
	data := StudentData{
		Name:             scen.Student.Name,
		PerformanceLevel: string(scen.Student.PerformanceLevel),
		Topic:            scen.Topic,
		Background:       scen.Student.Background,
		Misconception:    scen.Student.ActualMisconception,
		PracticeQuestion: scen.PracticeQuestion,
		Difficulty:       scen.Difficulty,

		ConceptualReadiness:    p.ConceptualReadiness,
		MetacognitiveAwareness: p.MetacognitiveAwareness,
		Persistence:            p.Persistence,
		CommunicationStyle:     string(p.CommunicationStyle),
		ConfidenceLevel:        p.ConfidenceLevel,

		ConfidenceDirective:    ConfidenceDirective(p.ConfidenceLevel),
		PersistenceDirective:   PersistenceDirective(p.Persistence),
		MetacognitionDirective: MetacognitionDirective(p.MetacognitiveAwareness),
		ReadinessDirective:     ReadinessDirective(p.ConceptualReadiness),
		StyleDirective:         StyleDirective(p.CommunicationStyle),

		RecentConversation: formatTranscript(lastN(history, TranscriptWindow)),
		TeacherMessage:     sanitize(teacherMessage),
	}
	return render(VariantStudent, lang, data)
}

// EvaluationData holds template data for the session-evaluation prompt.
type EvaluationData struct {
	ActualMisconception  string
	Diagnosis            string
	DiagnosisVerdict     string
	CorrectDiagnosisJSON string
	Intervention         string
	StrategyContext      string
	ChatText             string

	DiagnosticWeight   int
	QuestioningWeight  int
	InterventionWeight int
	StrategyWeight     int
}

// BuildEvaluationPrompt renders the scoring prompt over the full transcript.
// correctDiagnosis is computed locally from the selected option index; the
// backend restates it rather than deciding it.
func BuildEvaluationPrompt(scen *model.Scenario, diagnosis string, correctDiagnosis bool, intervention, strategy string, history []model.Message, lang i18n.Language) (string, error) {
	verdict := "NO"
	correctJSON := "false"
	if correctDiagnosis {
		verdict = "YES"
		correctJSON = "true"
	}
	strategyContext := "No specific strategy selected"
	if strategy != "" {
		strategyContext = "Selected Teaching Strategy: " + sanitize(strategy)
	}
	data := EvaluationData{
		ActualMisconception:  scen.Student.ActualMisconception,
		Diagnosis:            sanitize(diagnosis),
		DiagnosisVerdict:     verdict,
		CorrectDiagnosisJSON: correctJSON,
		Intervention:         sanitize(intervention),
		StrategyContext:      strategyContext,
		ChatText:             formatTranscript(history),

		DiagnosticWeight:   model.RubricDiagnosticAccuracy,
		QuestioningWeight:  model.RubricQuestioningQuality,
		InterventionWeight: model.RubricInterventionEffect,
		StrategyWeight:     model.RubricStrategyUse,
	}
	return render(VariantEvaluation, lang, data)
}

func lastN(messages []model.Message, n int) []model.Message {
	if len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}

func formatTranscript(messages []model.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		speaker := "Student"
		if m.Speaker == model.SpeakerTeacher {
			speaker = "Teacher"
		}
		sb.WriteString(speaker + ": " + sanitize(m.Text) + "\n")
	}
	return sb.String()
}

const maxFieldRunes = 8000

// sanitize strips instruction-injection markup from user-supplied text and
// caps its length before it is spliced into a prompt.
func sanitize(text string) string {
	text = systemInstructionsRegex.ReplaceAllString(text, "")
	text = roleOverrideRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) > maxFieldRunes {
		runes := []rune(text)
		text = string(runes[:maxFieldRunes]) + "\n[truncated due to length]"
	}
	return text
}
