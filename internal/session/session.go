// Package session drives the four teaching-practice workflows: question
// generation, scenario generation, simulated student replies, and the
// terminal evaluation. Each workflow renders a prompt, makes a single
// gateway call, and parses the result against that variant's contract.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yo-lxmmm/teachwise/internal/contract"
	"github.com/yo-lxmmm/teachwise/internal/i18n"
	"github.com/yo-lxmmm/teachwise/internal/llm"
	"github.com/yo-lxmmm/teachwise/internal/model"
	"github.com/yo-lxmmm/teachwise/internal/prompt"
)

// ErrQuestionRequired is returned when scenario generation is attempted
// without a practice question.
var ErrQuestionRequired = errors.New("a practice question is required for scenario generation")

// ErrDiagnosisIndex is returned when the selected misconception index does
// not point into the scenario's option list.
var ErrDiagnosisIndex = errors.New("selected misconception index out of range")

// Service holds the gateway handle and session language. Scenarios are not
// stored here: every call is a stateless transformation over its inputs, so
// concurrent sessions need nothing more than their own Scenario values.
type Service struct {
	gw   llm.Gateway
	lang i18n.Language
}

// New creates a session service bound to a completion gateway. The gateway's
// lifecycle is owned by the caller.
func New(gw llm.Gateway, lang i18n.Language) *Service {
	return &Service{gw: gw, lang: lang}
}

// GenerateQuestion asks the backend for a misconception-revealing practice
// question for the given class parameters.
func (s *Service) GenerateQuestion(ctx context.Context, grade model.GradeLevel, subject, outcomes, concepts string) (*contract.QuestionPayload, error) {
	promptText, err := prompt.BuildQuestionPrompt(grade, subject, outcomes, concepts, s.lang)
	if err != nil {
		return nil, err
	}
	raw, err := s.gw.Complete(ctx, promptText)
	if err != nil {
		return nil, err
	}
	slog.Debug("question completion", "raw", raw)
	return contract.ParseQuestion(raw)
}

// GenerateScenario asks the backend for a student identity and misconception
// set shaped by the persona, and assembles the resulting Scenario aggregate.
func (s *Service) GenerateScenario(ctx context.Context, grade model.GradeLevel, subject, outcomes, concepts, question string, p model.Persona) (*model.Scenario, error) {
	if question == "" {
		return nil, ErrQuestionRequired
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	promptText, err := prompt.BuildScenarioPrompt(grade, subject, outcomes, concepts, question, p, s.lang)
	if err != nil {
		return nil, err
	}
	raw, err := s.gw.Complete(ctx, promptText)
	if err != nil {
		return nil, err
	}
	slog.Debug("scenario completion", "raw", raw)

	payload, err := contract.ParseScenario(raw)
	if err != nil {
		return nil, err
	}

	scen := &model.Scenario{
		GradeLevel:                grade,
		Subject:                   subject,
		LearningOutcomes:          outcomes,
		KeyConcepts:               concepts,
		PracticeQuestion:          question,
		Persona:                   p,
		Student:                   payload.Student,
		MisconceptionOptions:      payload.MisconceptionOptions,
		CorrectMisconceptionIndex: payload.CorrectMisconceptionIndex,
		Topic:                     payload.Topic,
		Difficulty:                payload.Difficulty,
	}
	scen.AppendMessage(model.SpeakerStudent, payload.Student.InitialResponse)
	return scen, nil
}

// StudentResponse asks the backend to reply in character. The result is
// plain text; only fence decoration is stripped.
func (s *Service) StudentResponse(ctx context.Context, scen *model.Scenario, teacherMessage string, history []model.Message) (string, error) {
	promptText, err := prompt.BuildStudentPrompt(scen, teacherMessage, history, s.lang)
	if err != nil {
		return "", err
	}
	raw, err := s.gw.Complete(ctx, promptText)
	if err != nil {
		return "", err
	}
	return contract.ParseStudentText(raw)
}

// Evaluate scores the session. Diagnosis correctness is decided locally by
// comparing the selected option index against the scenario; the backend's
// restatement must agree with it, and its total must fit the rubric, or the
// result is rejected as a contract violation.
func (s *Service) Evaluate(ctx context.Context, scen *model.Scenario, selectedMisconception int, intervention, strategy string, history []model.Message) (*model.Evaluation, error) {
	if selectedMisconception < 0 || selectedMisconception >= len(scen.MisconceptionOptions) {
		return nil, fmt.Errorf("%w: %d of %d options", ErrDiagnosisIndex, selectedMisconception, len(scen.MisconceptionOptions))
	}
	diagnosis := scen.MisconceptionOptions[selectedMisconception]
	correct := selectedMisconception == scen.CorrectMisconceptionIndex

	promptText, err := prompt.BuildEvaluationPrompt(scen, diagnosis, correct, intervention, strategy, history, s.lang)
	if err != nil {
		return nil, err
	}
	raw, err := s.gw.Complete(ctx, promptText)
	if err != nil {
		return nil, err
	}
	slog.Debug("evaluation completion", "raw", raw)

	eval, err := contract.ParseEvaluation(raw)
	if err != nil {
		return nil, err
	}

	if eval.CorrectDiagnosis != correct {
		return nil, &contract.ParseFailure{
			Variant:   prompt.VariantEvaluation,
			Field:     "correctDiagnosis",
			Reason:    fmt.Sprintf("backend reported %v, local comparison says %v", eval.CorrectDiagnosis, correct),
			Raw:       raw,
			Retryable: true,
		}
	}
	return eval, nil
}
