package model

import (
	"errors"
	"testing"
)

func TestNewPersonaValidRange(t *testing.T) {
	styles := []CommunicationStyle{StyleVerbal, StyleVisual, StyleHandsOn}
	for readiness := DialMin; readiness <= DialMax; readiness++ {
		for confidence := DialMin; confidence <= DialMax; confidence++ {
			for _, style := range styles {
				p, err := NewPersona(readiness, 5, 5, confidence, style)
				if err != nil {
					t.Fatalf("NewPersona(%d, 5, 5, %d, %s): %v", readiness, confidence, style, err)
				}
				if p.ConceptualReadiness != readiness || p.ConfidenceLevel != confidence {
					t.Fatalf("persona did not keep dial values: %+v", p)
				}
			}
		}
	}
}

func TestNewPersonaOutOfRange(t *testing.T) {
	tests := []struct {
		name                                           string
		readiness, metacognition, persistence, confidence int
		wantField                                      string
	}{
		{"readiness zero", 0, 5, 5, 5, "conceptual_readiness"},
		{"readiness eleven", 11, 5, 5, 5, "conceptual_readiness"},
		{"metacognition zero", 5, 0, 5, 5, "metacognitive_awareness"},
		{"metacognition eleven", 5, 11, 5, 5, "metacognitive_awareness"},
		{"persistence zero", 5, 5, 0, 5, "persistence"},
		{"persistence eleven", 5, 5, 11, 5, "persistence"},
		{"confidence zero", 5, 5, 5, 0, "confidence_level"},
		{"confidence eleven", 5, 5, 5, 11, "confidence_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPersona(tt.readiness, tt.metacognition, tt.persistence, tt.confidence, StyleVerbal)
			var perr *InvalidPersonaError
			if !errors.As(err, &perr) {
				t.Fatalf("expected InvalidPersonaError, got %v", err)
			}
			if perr.Field != tt.wantField {
				t.Errorf("failing field = %q, want %q", perr.Field, tt.wantField)
			}
		})
	}
}

func TestNewPersonaUnknownStyle(t *testing.T) {
	_, err := NewPersona(5, 5, 5, 5, "telepathic")
	var perr *InvalidPersonaError
	if !errors.As(err, &perr) {
		t.Fatalf("expected InvalidPersonaError, got %v", err)
	}
	if perr.Field != "communication_style" {
		t.Errorf("failing field = %q, want communication_style", perr.Field)
	}
}

func TestPersonaValidateDecoded(t *testing.T) {
	// A persona that arrived through a request body must be re-checked.
	p := Persona{ConceptualReadiness: 5, MetacognitiveAwareness: 5, Persistence: 12, ConfidenceLevel: 5, CommunicationStyle: StyleVisual}
	if err := p.Validate(); err == nil {
		t.Error("expected validation error for persistence = 12")
	}

	p.Persistence = 7
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGradeLevels(t *testing.T) {
	for _, g := range []string{"K-5", "6-8", "9-12"} {
		if !IsValidGradeLevel(g) {
			t.Errorf("IsValidGradeLevel(%q) = false", g)
		}
	}
	for _, g := range []string{"", "college", "k-5"} {
		if IsValidGradeLevel(g) {
			t.Errorf("IsValidGradeLevel(%q) = true", g)
		}
	}
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	var s Scenario
	s.AppendMessage(SpeakerStudent, "first")
	s.AppendMessage(SpeakerTeacher, "second")
	s.AppendMessage(SpeakerStudent, "third")

	if len(s.Transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(s.Transcript))
	}
	if s.Transcript[0].Text != "first" || s.Transcript[2].Text != "third" {
		t.Errorf("transcript out of order: %+v", s.Transcript)
	}
	if s.Transcript[1].Speaker != SpeakerTeacher {
		t.Errorf("speaker = %q, want teacher", s.Transcript[1].Speaker)
	}
}

func TestRubricCeilingsSumToMax(t *testing.T) {
	if MaxSessionScore != 100 {
		t.Errorf("rubric ceilings sum to %d, want 100", MaxSessionScore)
	}
}
