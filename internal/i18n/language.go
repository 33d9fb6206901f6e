package i18n

import (
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Language selects the language a simulated student responds in.
type Language string

const (
	// LangDefault is English; prompts get no language directive.
	LangDefault Language = "en"
	// LangSpanish makes the backend conduct the whole session in Spanish.
	LangSpanish Language = "es"
)

// UnsupportedLanguageError reports a language selector that is not recognized.
// Unknown selectors never fall back to the default; drift across locales
// must be visible to the caller.
type UnsupportedLanguageError struct {
	Selector string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q (supported: en, es)", e.Selector)
}

// ParseLanguage validates a language selector. An empty selector means the default.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case Language(""), LangDefault:
		return LangDefault, nil
	case LangSpanish:
		return LangSpanish, nil
	default:
		return "", &UnsupportedLanguageError{Selector: s}
	}
}

// PromptDirective returns the fragment prepended verbatim to every assembled
// prompt for the given language. The default language returns an empty
// fragment so English sessions carry no localization overhead.
func PromptDirective(lang Language) (string, error) {
	switch lang {
	case LangDefault:
		return "", nil
	case LangSpanish:
		loc := NewLocalizer(string(lang))
		s, err := loc.Localize(&i18n.LocalizeConfig{MessageID: "PromptLanguageDirective"})
		if err != nil {
			return "", fmt.Errorf("localize prompt directive for %q: %w", lang, err)
		}
		return s, nil
	default:
		return "", &UnsupportedLanguageError{Selector: string(lang)}
	}
}
