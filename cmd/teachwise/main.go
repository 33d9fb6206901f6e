package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yo-lxmmm/teachwise/internal/handler"
	appI18n "github.com/yo-lxmmm/teachwise/internal/i18n"
	"github.com/yo-lxmmm/teachwise/internal/llm"
	"github.com/yo-lxmmm/teachwise/internal/model"
	"github.com/yo-lxmmm/teachwise/internal/prompt"
	"github.com/yo-lxmmm/teachwise/internal/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "teachwise",
		Short: "Teaching-practice simulator powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, previewCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `teachwise --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP simulation server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	f.String("provider", "gemini", "Completion backend (gemini, openai)")
	f.String("api-key", "", "API key for the completion backend (or set TEACHWISE_API_KEY / GOOGLE_API_KEY)")
	f.String("llm-url", "", "Base URL for OpenAI-compatible endpoints (empty for hosted API)")
	f.String("llm-model", "", "Model name (defaults per provider)")
	f.StringP("lang", "l", "en", "Session language (en, es)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a sample prompt variant to stdout for auditing",
		RunE:  runPreview,
	}
	f := cmd.Flags()
	f.String("variant", "scenario", "Prompt variant (question, scenario, student, evaluation)")
	f.StringP("lang", "l", "en", "Session language (en, es)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TEACHWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("teachwise")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/teachwise")
	v.AddConfigPath("/etc/teachwise")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang, err := appI18n.ParseLanguage(v.GetString("lang"))
	if err != nil {
		return err
	}
	if err := appI18n.Init(string(lang)); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	provider := strings.ToLower(v.GetString("provider"))
	apiKey := v.GetString("api-key")
	if apiKey == "" && provider == "gemini" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	gw, err := buildGateway(cmd.Context(), provider, apiKey, v.GetString("llm-url"), v.GetString("llm-model"))
	if err != nil {
		return err
	}

	svc := session.New(gw, lang)
	h := handler.New(svc, provider, apiKey != "")

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(string(lang)))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"provider", provider,
		"model", v.GetString("llm-model"),
		"lang", lang,
		"api_key_present", apiKey != "",
	)
	return http.ListenAndServe(addr, r)
}

func buildGateway(ctx context.Context, provider, apiKey, baseURL, modelName string) (llm.Gateway, error) {
	if apiKey == "" {
		slog.Warn("no API key configured; completion calls will fail until one is set")
		return llm.Unavailable{}, nil
	}

	switch provider {
	case "gemini":
		return llm.NewGemini(ctx, apiKey, modelName)
	case "openai":
		gw, err := llm.NewOpenAI(baseURL, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		if err := gw.Ping(ctx); err != nil {
			return nil, err
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: gemini, openai)", provider)
	}
}

func runPreview(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang, err := appI18n.ParseLanguage(v.GetString("lang"))
	if err != nil {
		return err
	}
	if err := appI18n.Init(string(lang)); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	persona, err := model.NewPersona(6, 4, 7, 5, model.StyleVerbal)
	if err != nil {
		return err
	}
	scen := sampleScenario(persona)

	var text string
	switch v.GetString("variant") {
	case "question":
		text, err = prompt.BuildQuestionPrompt(scen.GradeLevel, scen.Subject, scen.LearningOutcomes, scen.KeyConcepts, lang)
	case "scenario":
		text, err = prompt.BuildScenarioPrompt(scen.GradeLevel, scen.Subject, scen.LearningOutcomes, scen.KeyConcepts, scen.PracticeQuestion, persona, lang)
	case "student":
		text, err = prompt.BuildStudentPrompt(scen, "Can you explain how you compared them?", scen.Transcript, lang)
	case "evaluation":
		text, err = prompt.BuildEvaluationPrompt(scen, scen.MisconceptionOptions[0], true,
			"I would use fraction bars to compare the two denominators side by side.",
			"visual models", scen.Transcript, lang)
	default:
		return fmt.Errorf("unknown variant %q (supported: question, scenario, student, evaluation)", v.GetString("variant"))
	}
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}

func sampleScenario(p model.Persona) *model.Scenario {
	scen := &model.Scenario{
		GradeLevel:       model.GradeElementary,
		Subject:          "Mathematics",
		LearningOutcomes: "Compare fractions with unlike denominators",
		KeyConcepts:      "fractions, denominators, equivalence",
		PracticeQuestion: "Which is larger, 1/3 or 1/4? Explain how you decided.",
		Persona:          p,
		Student: model.StudentProfile{
			Name:                "Maya",
			Background:          "Enjoys math games but rushes through written work.",
			PerformanceLevel:    model.PerformanceAverage,
			ActualMisconception: "A larger denominator always means a larger fraction.",
			InitialResponse:     "1/4 is bigger because 4 is bigger than 3.",
		},
		MisconceptionOptions: []string{
			"A larger denominator always means a larger fraction.",
			"Fractions can only be compared when the numerators match.",
			"The numerator counts the total number of parts.",
			"Equivalent fractions must use the same numbers.",
		},
		CorrectMisconceptionIndex: 0,
		Topic:                     "comparing fractions",
		Difficulty:                "beginner",
	}
	scen.AppendMessage(model.SpeakerStudent, scen.Student.InitialResponse)
	scen.AppendMessage(model.SpeakerTeacher, "Interesting! How many pieces would a pizza be cut into for 1/4?")
	scen.AppendMessage(model.SpeakerStudent, "Four pieces, so each piece is bigger than with three pieces... I think maybe?")
	return scen
}
