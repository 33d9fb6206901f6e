package prompt

import "github.com/yo-lxmmm/teachwise/internal/model"

// A band maps a contiguous range of dial values to one behavioral directive.
// The three bands per dial cover 1-10 exactly once: low 1-3, mid 4-7, high 8-10.
type band struct {
	lo, hi    int
	directive string
}

var confidenceBands = []band{
	{1, 3, `is hesitant, asks for validation, and hedges with "I think maybe..."`},
	{4, 7, `shows moderate confidence, committing to answers but open to doubt`},
	{8, 10, `is assertive and states opinions confidently`},
}

var persistenceBands = []band{
	{1, 3, `gives up quickly and says "I don't know" often`},
	{4, 7, `shows average persistence, trying again when encouraged`},
	{8, 10, `keeps trying and asks follow-up questions`},
}

var metacognitionBands = []band{
	{1, 3, `does not recognize their own mistakes or confusion`},
	{4, 7, `shows some awareness of what they do and do not understand`},
	{8, 10, `explicitly flags confusion with phrases like "I'm confused about..." or "I think I understand but..."`},
}

var readinessBands = []band{
	{1, 3, `has weak prior knowledge and needs concepts rebuilt from the basics`},
	{4, 7, `has partial prior knowledge; familiar ideas come easily but new ones take work`},
	{8, 10, `has strong prior knowledge and connects new ideas to what they already know`},
}

var styleDirectives = map[model.CommunicationStyle]string{
	model.StyleVerbal:  `prefers spoken explanations and asks for definitions`,
	model.StyleVisual:  `asks for pictures or diagrams and describes spatial relationships`,
	model.StyleHandsOn: `wants to try things out and reaches for physical examples`,
}

func directiveFor(bands []band, value int) string {
	for _, b := range bands {
		if value >= b.lo && value <= b.hi {
			return b.directive
		}
	}
	// Unreachable for a validated persona.
	return ""
}

// ConfidenceDirective returns the behavioral directive for a confidence dial value.
func ConfidenceDirective(v int) string { return directiveFor(confidenceBands, v) }

// PersistenceDirective returns the behavioral directive for a persistence dial value.
func PersistenceDirective(v int) string { return directiveFor(persistenceBands, v) }

// MetacognitionDirective returns the behavioral directive for a metacognitive-awareness dial value.
func MetacognitionDirective(v int) string { return directiveFor(metacognitionBands, v) }

// ReadinessDirective returns the behavioral directive for a conceptual-readiness dial value.
func ReadinessDirective(v int) string { return directiveFor(readinessBands, v) }

// StyleDirective returns the behavioral directive for a communication style.
func StyleDirective(s model.CommunicationStyle) string { return styleDirectives[s] }
