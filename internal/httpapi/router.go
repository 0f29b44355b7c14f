package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/httpapi/handler"
	"github.com/vntrieu/moodscreen/internal/ratelimit"
	"github.com/vntrieu/moodscreen/internal/survey"
	"github.com/vntrieu/moodscreen/internal/tools"

	_ "github.com/vntrieu/moodscreen/docs" // swag-generated docs
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Survey *survey.Service
	Chat   *chat.Service
	// FDA is optional; without it GET /api/fda answers 503.
	FDA *tools.FDAClient
	// Tools is optional and only used to list tool names at GET /.
	Tools *tools.Registry
	// Limiter is optional: if nil, chat and survey submissions are not rate limited.
	Limiter        ratelimit.Limiter
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable it only behind a proxy that sets those headers.
	TrustProxy bool
	Logger     *zap.Logger
}

// NewRouter builds the root HTTP router.
//
// @title            Moodscreen API
// @version          1.0
// @description      PHQ-9 screening questionnaire with a follow-up assistant chat.
// @BasePath         /
func NewRouter(d Deps) http.Handler {
	if d.Limiter == nil {
		d.Limiter = ratelimit.Noop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	var toolNames func() []string
	if d.Tools != nil {
		toolNames = d.Tools.Names
	}
	info := handler.NewInfoHandler(d.Chat.Available, toolNames, d.Logger)
	r.Get("/", info.Root)
	r.Get("/healthz", handler.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	rateLimitByIP := RateLimitMiddleware(d.Limiter, RateLimitKeyByIP)
	limitBody := LimitRequestBody(DefaultMaxBodyBytes)

	surveyHandler := handler.NewSurveyHandler(d.Survey, d.Logger)
	chatHandler := handler.NewChatHandler(d.Chat, d.Logger)
	fdaHandler := handler.NewFDAHandler(d.FDA, d.Logger)

	// Both spellings are served; the form posts to /survay.
	r.With(limitBody, rateLimitByIP).Post("/survay", surveyHandler.Submit)
	r.With(limitBody, rateLimitByIP).Post("/survey", surveyHandler.Submit)
	r.Get("/chat_history/{chat_id}", chatHandler.History)

	r.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Get("/questionnaire", surveyHandler.Questionnaire)
		r.Post("/sessions", surveyHandler.CreateSession)
		r.Get("/sessions/{session_id}/submissions", surveyHandler.ListSessionSubmissions)
		r.Get("/submissions/{id}", surveyHandler.GetSubmission)
		r.With(rateLimitByIP).Post("/chat", chatHandler.Send)
		r.Get("/chats/{chat_id}/messages", chatHandler.History)
		r.Get("/fda", fdaHandler.Lookup)
	})

	return r
}
