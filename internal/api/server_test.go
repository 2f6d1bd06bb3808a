package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/quizmaster/internal/config"
	"github.com/dgallion1/quizmaster/internal/metrics"
	"github.com/dgallion1/quizmaster/internal/progress"
	"github.com/dgallion1/quizmaster/internal/trainer"
)

const sampleQuiz = `1. Capital of France?
a) Paris
b) Rome
c) Madrid
2. Largest planet?
a) Jupiter
b) Mars
`

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes:      1 << 20,
		UploadRatePerMinute: 0,
		SessionSize:         25,
		DeckTTL:             time.Hour,
		ProgressBackend:     "memory",
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *progress.MemoryStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := progress.NewMemoryStore()
	tr := trainer.New(
		trainer.Config{SessionSize: cfg.SessionSize, TTL: cfg.DeckTTL},
		store,
		metrics.New(),
		log,
		trainer.WithRand(rand.New(rand.NewPCG(3, 4))),
	)
	return NewServer(tr, log, cfg), store
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/decks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadDeck(t *testing.T, s *Server) trainer.DeckSummary {
	t.Helper()
	rec := do(t, s, uploadRequest(t, "geo.txt", []byte(sampleQuiz)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var sum trainer.DeckSummary
	decode(t, rec, &sum)
	return sum
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestUploadDeck(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	sum := uploadDeck(t, s)
	if sum.QuestionCount != 2 {
		t.Errorf("expected 2 questions, got %d", sum.QuestionCount)
	}
	if sum.Name != "geo.txt" {
		t.Errorf("expected name %q, got %q", "geo.txt", sum.Name)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/decks/"+sum.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUploadDeck_NoQuestions(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, uploadRequest(t, "notes.txt", []byte("plain prose only")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadDeck_CorruptDocument(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, uploadRequest(t, "broken.docx", []byte("not a zip archive")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	decode(t, rec, &body)
	if !strings.HasPrefix(body["error"], "could not read document") {
		t.Errorf("unexpected error %q", body["error"])
	}
}

func TestUploadDeck_UnsupportedType(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, uploadRequest(t, "slides.pptx", []byte("x")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadDeck_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 16
	s, _ := newTestServer(t, cfg)
	rec := do(t, s, uploadRequest(t, "big.txt", []byte(sampleQuiz)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(sampleQuiz)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Count     int `json:"count"`
		Questions []struct {
			Text         string `json:"text"`
			CorrectIndex int    `json:"correct_index"`
			Answers      []struct {
				Text      string `json:"text"`
				IsCorrect bool   `json:"is_correct"`
			} `json:"answers"`
		} `json:"questions"`
	}
	decode(t, rec, &body)
	if body.Count != 2 || len(body.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", body.Count)
	}
	if body.Questions[0].Text != "Capital of France?" {
		t.Errorf("unexpected first question %q", body.Questions[0].Text)
	}
	if a := body.Questions[0].Answers[0]; a.Text != "Paris" || !a.IsCorrect {
		t.Errorf("expected first answer Paris marked correct, got %+v", a)
	}
}

func TestParseEndpoint_EmptyResult(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"questions":[]`) {
		t.Errorf("expected empty questions array, got %s", rec.Body.String())
	}
}

func TestSessionFlow(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	deck := uploadDeck(t, s)

	rec := do(t, s, jsonRequest(http.MethodPost, "/api/decks/"+deck.ID+"/sessions", `{"mode":"preparation"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		SessionID string `json:"session_id"`
		Mode      string `json:"mode"`
		Total     int    `json:"total"`
	}
	decode(t, rec, &started)
	if started.Mode != "study" || started.Total != 2 {
		t.Fatalf("unexpected session %+v", started)
	}

	for range started.Total {
		rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+started.SessionID, nil))
		var view struct {
			Answers []string `json:"answers"`
		}
		decode(t, rec, &view)
		choice := -1
		for i, a := range view.Answers {
			if a == "Paris" || a == "Jupiter" {
				choice = i
			}
		}
		rec = do(t, s, jsonRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/answer", fmt.Sprintf(`{"choice":%d}`, choice)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var out struct {
			Correct bool `json:"correct"`
		}
		decode(t, rec, &out)
		if !out.Correct {
			t.Fatalf("expected correct answer")
		}
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/sessions/"+started.SessionID+"/result", nil))
	var result struct {
		Score  int  `json:"score"`
		Total  int  `json:"total"`
		Passed bool `json:"passed"`
	}
	decode(t, rec, &result)
	if result.Score != 2 || result.Total != 2 || !result.Passed {
		t.Errorf("unexpected result %+v", result)
	}

	// Finished session rejects further answers.
	rec = do(t, s, jsonRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/answer", `{"choice":0}`))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	// Both questions are solved, so study reports fully learned.
	rec = do(t, s, jsonRequest(http.MethodPost, "/api/decks/"+deck.ID+"/sessions", `{"mode":"study"}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fully_learned") {
		t.Errorf("expected fully_learned, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec, _ := store.Load(t.Context(), "geo.txt"); len(rec.Solved) != 2 {
		t.Errorf("expected 2 solved persisted, got %v", rec.Solved)
	}
}

func TestStartSession_BadMode(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	deck := uploadDeck(t, s)
	rec := do(t, s, jsonRequest(http.MethodPost, "/api/decks/"+deck.ID+"/sessions", `{"mode":"blitz"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStartSession_UnknownDeck(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := do(t, s, jsonRequest(http.MethodPost, "/api/decks/missing/sessions", `{"mode":"exam"}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAnswer_Validation(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	deck := uploadDeck(t, s)
	rec := do(t, s, jsonRequest(http.MethodPost, "/api/decks/"+deck.ID+"/sessions", `{"mode":"exam"}`))
	var started struct {
		SessionID string `json:"session_id"`
	}
	decode(t, rec, &started)

	rec = do(t, s, jsonRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/answer", `{}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing choice: expected 400, got %d", rec.Code)
	}
	rec = do(t, s, jsonRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/answer", `{"choice":9}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range choice: expected 400, got %d", rec.Code)
	}
	rec = do(t, s, jsonRequest(http.MethodPost, "/api/sessions/nope/answer", `{"choice":0}`))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", rec.Code)
	}
}

func TestRestartSession(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	deck := uploadDeck(t, s)
	rec := do(t, s, jsonRequest(http.MethodPost, "/api/decks/"+deck.ID+"/sessions", `{"mode":"exam"}`))
	var started struct {
		SessionID string `json:"session_id"`
	}
	decode(t, rec, &started)
	do(t, s, jsonRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/answer", `{"choice":0}`))

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/sessions/"+started.SessionID+"/restart", nil))
	var view struct {
		Position int `json:"position"`
		Score    int `json:"score"`
	}
	decode(t, rec, &view)
	if view.Position != 0 || view.Score != 0 {
		t.Errorf("expected rewound session, got %+v", view)
	}
}

func TestDeleteDeck(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	deck := uploadDeck(t, s)
	rec := do(t, s, httptest.NewRequest(http.MethodDelete, "/api/decks/"+deck.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/decks/"+deck.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestProgressEndpoints(t *testing.T) {
	s, store := newTestServer(t, testConfig())
	store.Save(t.Context(), "my quiz.docx", progress.Record{Solved: []int{1, 4}})

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if !strings.Contains(rec.Body.String(), "my quiz.docx") {
		t.Errorf("expected document listed, got %s", rec.Body.String())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/progress/my%20quiz.docx", nil))
	var body struct {
		DocName     string `json:"doc_name"`
		SolvedCount int    `json:"solved_count"`
	}
	decode(t, rec, &body)
	if body.DocName != "my quiz.docx" || body.SolvedCount != 2 {
		t.Errorf("unexpected progress %+v", body)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/progress/my%20quiz.docx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec, _ := store.Load(t.Context(), "my quiz.docx"); len(rec.Solved) != 0 {
		t.Errorf("expected progress cleared, got %v", rec.Solved)
	}
}

func TestParseStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	uploadDeck(t, s)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/stats/parse", nil))
	var body struct {
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	decode(t, rec, &body)
	if body.Stats.Count != 1 {
		t.Errorf("expected 1 parse sample, got %d", body.Stats.Count)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/health"`) {
		t.Errorf("expected /health route in request metrics")
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.QuizAPIKey = "s3cret"
	s, _ := newTestServer(t, cfg)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(t, s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	if rec := do(t, s, req); rec.Code != http.StatusOK {
		t.Errorf("valid key: expected 200, got %d", rec.Code)
	}

	// Health stays public.
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
}

func TestUploadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.UploadRatePerMinute = 2
	s, _ := newTestServer(t, cfg)

	for i := range 2 {
		if rec := do(t, s, uploadRequest(t, "geo.txt", []byte(sampleQuiz))); rec.Code != http.StatusCreated {
			t.Fatalf("upload %d: expected 201, got %d", i, rec.Code)
		}
	}
	if rec := do(t, s, uploadRequest(t, "geo.txt", []byte(sampleQuiz))); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// Other routes are not limited.
	if rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/progress", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("1.1.1.1") {
		t.Fatal("expected first request allowed")
	}
	if rl.allow("1.1.1.1") {
		t.Fatal("expected second request limited")
	}

	now = now.Add(10 * time.Minute)
	rl.allow("2.2.2.2")
	rl.mu.Lock()
	_, stale := rl.visitors["1.1.1.1"]
	rl.mu.Unlock()
	if stale {
		t.Error("expected idle visitor swept")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"quiz.docx":            "quiz.docx",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\bio.docx`: "bio.docx",
		"":                     "unnamed",
		"a..b.txt":             "a_b.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
