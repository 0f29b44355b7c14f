package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// healthResponse is the JSON body for GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
}

// Healthz handles GET /healthz.
//
// @Summary      Health check
// @Description  Liveness/readiness check. No authentication required.
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /healthz [get]
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// InfoResponse describes the service at GET /.
type InfoResponse struct {
	Message     string            `json:"message"`
	Status      string            `json:"status"`
	AIAvailable bool              `json:"ai_available"`
	Tools       []string          `json:"tools"`
	Endpoints   map[string]string `json:"endpoints"`
}

// InfoHandler serves GET /.
type InfoHandler struct {
	aiAvailable func() bool
	tools       func() []string
	logger      *zap.Logger
}

// NewInfoHandler creates an InfoHandler. Both funcs are evaluated per request.
func NewInfoHandler(aiAvailable func() bool, tools func() []string, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{aiAvailable: aiAvailable, tools: tools, logger: orNop(logger)}
}

// Root handles GET /
//
// @Summary      Service info
// @Description  Reports whether the chat model is configured and lists the main endpoints.
// @Tags         health
// @Produce      json
// @Success      200  {object}  InfoResponse
// @Router       / [get]
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	resp := InfoResponse{
		Message:     "Психологический чат-бот API",
		Status:      "работает",
		AIAvailable: h.aiAvailable != nil && h.aiAvailable(),
		Tools:       []string{},
		Endpoints: map[string]string{
			"GET /api/questionnaire":      "Получить вопросы PHQ-9",
			"POST /api/sessions":          "Получить идентификатор сессии",
			"POST /survey":                "Отправить результаты опроса PHQ-9",
			"POST /api/chat":              "Отправить сообщение в чат",
			"GET /chat_history/{chat_id}": "Получить историю чата",
			"GET /api/submissions/{id}":   "Получить сохранённый результат",
			"GET /api/fda":                "Информация о препарате из базы FDA",
		},
	}
	if h.tools != nil {
		resp.Tools = h.tools()
	}
	writeJSON(w, r, h.logger, http.StatusOK, resp)
}
