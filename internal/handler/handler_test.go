package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yo-lxmmm/teachwise/internal/i18n"
	"github.com/yo-lxmmm/teachwise/internal/llm"
	"github.com/yo-lxmmm/teachwise/internal/session"
)

type stubGateway struct {
	raw string
	err error
}

func (g *stubGateway) Complete(context.Context, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.raw, nil
}

func newServer(t *testing.T, gw llm.Gateway) *httptest.Server {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	h := New(session.New(gw, i18n.LangDefault), "gemini", true)
	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	h.Routes(r)
	return httptest.NewServer(r)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &stubGateway{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["provider"] != "gemini" {
		t.Errorf("provider = %v", body["provider"])
	}
	if body["api_key"] != "available" {
		t.Errorf("api_key = %v", body["api_key"])
	}
}

func TestHealthMissingKey(t *testing.T) {
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	h := New(session.New(llm.Unavailable{}, i18n.LangDefault), "gemini", false)
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body := decodeMap(t, resp)
	if body["api_key"] != "missing" {
		t.Errorf("api_key = %v", body["api_key"])
	}
}

func TestGenerateQuestionOK(t *testing.T) {
	gw := &stubGateway{raw: `{
		"question": "Which is larger, 1/3 or 1/4?",
		"rationale": "Unit fraction comparison exposes denominator reasoning.",
		"expectedMisconceptions": ["bigger denominator means bigger fraction"]
	}`}
	srv := newServer(t, gw)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/generate-question", map[string]string{
		"gradeLevel":       "K-5",
		"subject":          "Mathematics",
		"learningOutcomes": "Compare fractions",
		"concepts":         "fractions",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if body["question"] != "Which is larger, 1/3 or 1/4?" {
		t.Errorf("question = %v", body["question"])
	}
}

func TestGenerateQuestionBadGrade(t *testing.T) {
	srv := newServer(t, &stubGateway{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/generate-question", map[string]string{
		"gradeLevel": "college",
		"subject":    "Mathematics",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGenerateScenarioBadPersona(t *testing.T) {
	srv := newServer(t, &stubGateway{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/generate-scenario", map[string]any{
		"gradeLevel": "K-5",
		"subject":    "Mathematics",
		"question":   "q",
		"studentPersona": map[string]any{
			"conceptual_readiness":    11,
			"metacognitive_awareness": 5,
			"persistence":             5,
			"confidence_level":        5,
			"communication_style":     "verbal",
		},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBackendUnavailable(t *testing.T) {
	srv := newServer(t, llm.Unavailable{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/generate-question", map[string]string{
		"gradeLevel": "K-5",
		"subject":    "Mathematics",
	})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if body["error"] == "" {
		t.Error("expected localized error message")
	}
}

func TestBackendError(t *testing.T) {
	gw := &stubGateway{err: &llm.BackendError{Provider: "gemini", Err: errors.New("rate limited")}}
	srv := newServer(t, gw)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/generate-question", map[string]string{
		"gradeLevel": "K-5",
		"subject":    "Mathematics",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestContractViolationResponse(t *testing.T) {
	// Score past the rubric ceiling fails the contract and reports the
	// offending field so the client can decide to retry.
	gw := &stubGateway{raw: "```json\n" + `{
		"correctDiagnosis": true,
		"score": 150,
		"questioningScore": 8,
		"correctMisconception": "m",
		"feedback": "f",
		"improvements": ["i"]
	}` + "\n```"}
	srv := newServer(t, gw)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/evaluate-session", map[string]any{
		"scenario":              testScenarioBody(),
		"selectedMisconception": 0,
		"intervention":          "I drew fraction bars.",
		"chatHistory":           []any{},
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if body["field"] != "score" {
		t.Errorf("field = %v, want score", body["field"])
	}
	if body["retryable"] != true {
		t.Errorf("retryable = %v, want true", body["retryable"])
	}
}

func TestStudentResponseOK(t *testing.T) {
	gw := &stubGateway{raw: "I think maybe it is 1/4?"}
	srv := newServer(t, gw)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/student-response", map[string]any{
		"scenario":       testScenarioBody(),
		"teacherMessage": "How did you decide?",
		"chatHistory":    []any{},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if got, _ := body["response"].(string); !strings.Contains(got, "1/4") {
		t.Errorf("response = %v", body["response"])
	}
}

func TestEvaluateIndexOutOfRange(t *testing.T) {
	srv := newServer(t, &stubGateway{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/evaluate-session", map[string]any{
		"scenario":              testScenarioBody(),
		"selectedMisconception": 9,
		"intervention":          "i",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newServer(t, &stubGateway{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/generate-question", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func testScenarioBody() map[string]any {
	return map[string]any{
		"gradeLevel":       "K-5",
		"subject":          "Mathematics",
		"practiceQuestion": "Which is larger, 1/3 or 1/4?",
		"persona": map[string]any{
			"conceptual_readiness":    6,
			"metacognitive_awareness": 4,
			"persistence":             7,
			"confidence_level":        5,
			"communication_style":     "verbal",
		},
		"student": map[string]any{
			"name":                "Maya",
			"background":          "b",
			"performanceLevel":    "average",
			"actualMisconception": "A larger denominator always means a larger fraction.",
			"initialResponse":     "1/4 is bigger.",
		},
		"misconceptionOptions": []string{
			"A larger denominator always means a larger fraction.",
			"d1", "d2", "d3",
		},
		"correctMisconceptionIndex": 0,
	}
}
