package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/store"
)

// Chat message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// MaxMessageLen bounds a chat message, in runes.
const MaxMessageLen = 4000

// ChatRequest is the body of POST /api/chat. A missing chat_id starts a new chat.
type ChatRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	ChatID string `json:"chat_id,omitempty"`
}

// ChatResponse is the bot's answer.
type ChatResponse struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	ChatID string `json:"chat_id"`
}

// ChatHandler relays chat messages to the assistant.
type ChatHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: orNop(logger)}
}

func validateChatRequest(req ChatRequest) string {
	if req.Sender != SenderUser {
		return `sender must be "user"`
	}
	if strings.TrimSpace(req.Text) == "" {
		return "text is required"
	}
	if len([]rune(req.Text)) > MaxMessageLen {
		return "text is too long"
	}
	if len(req.ChatID) > 128 {
		return "chat_id is too long"
	}
	return ""
}

// Send handles POST /api/chat
//
// @Summary      Send chat message
// @Description  Relays a user message to the assistant and returns its reply. Exit words (выход, exit, quit) end the dialog.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      ChatRequest   true  "Message"
// @Success      200   {object}  ChatResponse
// @Failure      400   {string}  string        "Bad request"
// @Failure      500   {object}  ChatResponse  "Apology message from the bot"
// @Router       /api/chat [post]
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateChatRequest(req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		chatID = h.svc.NewChatID()
	}

	reply, err := h.svc.Reply(r.Context(), chatID, req.Text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("chat reply", zap.String("request_id", requestID(r)), zap.String("chat_id", chatID), zap.Error(err))
		writeJSON(w, r, h.logger, http.StatusInternalServerError, ChatResponse{Text: chat.ApologyMessage, Sender: SenderBot, ChatID: chatID})
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, ChatResponse{Text: reply, Sender: SenderBot, ChatID: chatID})
}

// History handles GET /chat_history/{chat_id} and GET /api/chats/{chat_id}/messages
//
// @Summary      Chat history
// @Description  Stored turns of a chat, system prompt first.
// @Tags         chat
// @Produce      json
// @Param        chat_id  path      string  true  "Chat id"
// @Success      200      {array}   store.Message
// @Failure      404      {string}  string  "Chat not found"
// @Failure      500      {string}  string  "Server error"
// @Router       /chat_history/{chat_id} [get]
// @Router       /api/chats/{chat_id}/messages [get]
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.History(r.Context(), chi.URLParam(r, "chat_id"))
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			http.Error(w, "chat not found", http.StatusNotFound)
			return
		}
		h.logger.Error("chat history", zap.String("request_id", requestID(r)), zap.Error(err))
		http.Error(w, "failed to get chat history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, msgs)
}
