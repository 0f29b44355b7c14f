package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/httpapi/handler"
	"github.com/vntrieu/moodscreen/internal/llm"
	"github.com/vntrieu/moodscreen/internal/questionnaire"
	"github.com/vntrieu/moodscreen/internal/ratelimit"
	"github.com/vntrieu/moodscreen/internal/session"
	"github.com/vntrieu/moodscreen/internal/store"
	"github.com/vntrieu/moodscreen/internal/survey"
	"github.com/vntrieu/moodscreen/internal/tools"
)

type echoModel struct{}

func (echoModel) Model() string { return "echo" }

func (echoModel) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	return &llm.Response{Content: "Вы сказали: " + last.Content}, nil
}

func newTestRouter(t *testing.T, limiter ratelimit.Limiter) http.Handler {
	t.Helper()
	st := store.NewMemoryStore()
	chatSvc := chat.NewService(st, echoModel{}, nil, chat.Config{}, zap.NewNop())
	surveySvc := survey.NewService(questionnaire.Default(), st, chatSvc, zap.NewNop())
	return NewRouter(Deps{
		Survey:  surveySvc,
		Chat:    chatSvc,
		Limiter: limiter,
		Logger:  zap.NewNop(),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_InfoAndHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info handler.InfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.True(t, info.AIAvailable)
	assert.Contains(t, info.Endpoints, "POST /api/chat")
}

func TestRouter_SurveyFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodGet, "/api/questionnaire", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var q questionnaire.Questionnaire
	require.NoError(t, json.NewDecoder(w.Body).Decode(&q))
	require.Len(t, q.Questions, 9)
	require.Len(t, q.Options, 4)

	w = do(t, r, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var sess handler.SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sess))
	require.True(t, session.Valid(sess.SessionID))

	answers := make(map[string]string, len(q.Questions))
	for _, question := range q.Questions {
		answers[question.Text] = q.Options[3].Label
	}
	w = do(t, r, http.MethodPost, "/survay", map[string]any{"session_id": sess.SessionID, "answers": answers})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res survey.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.NotNil(t, res.Score)
	assert.Equal(t, 27, *res.Score)
	assert.Equal(t, "severe", res.SeverityLevel)
	assert.Equal(t, sess.SessionID, res.SessionID)

	w = do(t, r, http.MethodPost, "/survey", map[string]any{"answers": []int{0, 0, 0, 0, 0, 0, 0, 0, 1}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, "/api/submissions/"+res.SubmissionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sub store.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sub))
	assert.Equal(t, res.ChatID, sub.ChatID)

	w = do(t, r, http.MethodGet, "/api/sessions/"+jsonNumber(sess.SessionID)+"/submissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var subs []store.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&subs))
	assert.Len(t, subs, 1)

	w = do(t, r, http.MethodGet, "/chat_history/"+res.ChatID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []store.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, res.Message, history[1].Content)
}

func TestRouter_SurveyErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "malformed json", body: "{", want: http.StatusBadRequest},
		{name: "missing answers", body: map[string]any{"session_id": 123456789}, want: http.StatusBadRequest},
		{name: "null answers", body: `{"answers":[null,null,null,null,null,null,null,null,null]}`, want: http.StatusBadRequest},
		{name: "too few answers", body: map[string]any{"answers": []int{1, 2}}, want: http.StatusBadRequest},
		{name: "bad session", body: map[string]any{"session_id": 12, "answers": make([]int, 9)}, want: http.StatusBadRequest},
		{name: "unknown question", body: map[string]any{"answers": map[string]string{"как дела?": "1"}}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/survay", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	w := do(t, r, http.MethodGet, "/api/submissions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, "/api/sessions/12/submissions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/survay", `{"answers":"`+strings.Repeat("x", DefaultMaxBodyBytes)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_Chat(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "Плохо сплю", Sender: "user"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handler.ChatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "bot", resp.Sender)
	assert.Equal(t, "Вы сказали: Плохо сплю", resp.Text)
	require.NotEmpty(t, resp.ChatID)

	w = do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "выход", Sender: "user", ChatID: resp.ChatID})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, chat.FarewellMessage, resp.Text)

	w = do(t, r, http.MethodGet, "/api/chats/"+resp.ChatID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []store.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	assert.Len(t, history, 4)

	w = do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "hi", Sender: "bot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "  ", Sender: "user"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/chat_history/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	r := newTestRouter(t, ratelimit.NewWindow(1, time.Minute))

	w := do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "hi", Sender: "user"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/chat", handler.ChatRequest{Text: "hi", Sender: "user"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = do(t, r, http.MethodGet, "/api/questionnaire", nil)
	assert.Equal(t, http.StatusOK, w.Code, "reads are not limited")
}

func TestRouter_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	st := store.NewMemoryStore()
	chatSvc := chat.NewService(st, echoModel{}, nil, chat.Config{}, zap.NewNop())
	send := func(r http.Handler, forwardedFor string) int {
		body, err := json.Marshal(handler.ChatRequest{Text: "hi", Sender: "user"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
		req.RemoteAddr = "198.51.100.4:5000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	direct := NewRouter(Deps{Chat: chatSvc, Limiter: ratelimit.NewWindow(1, time.Minute)})
	assert.Equal(t, http.StatusOK, send(direct, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(direct, "203.0.113.2"), "a new forwarded address is the same client")

	proxied := NewRouter(Deps{Chat: chatSvc, Limiter: ratelimit.NewWindow(1, time.Minute), TrustProxy: true})
	assert.Equal(t, http.StatusOK, send(proxied, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, send(proxied, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, send(proxied, "203.0.113.1"))
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_FDADisabled(t *testing.T) {
	r := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/fda?drug_name=aspirin", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// The API documents itself, so its own doc can feed tool discovery.
func TestRouter_DocsFeedToolDiscovery(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, nil))
	defer srv.Close()

	found, err := tools.NewOpenAPISource(srv.URL+"/docs/doc.json", srv.URL, srv.Client()).Load(context.Background())
	require.NoError(t, err)

	var fda llm.ToolSpec
	for _, tool := range found {
		if tool.Spec().Name == "api_fda" {
			fda = tool.Spec()
		}
	}
	require.Equal(t, "api_fda", fda.Name)
	assert.Equal(t, []string{"drug_name"}, fda.Parameters.Required)
	assert.Contains(t, fda.Parameters.Properties, "search_type")
}

func jsonNumber(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}
