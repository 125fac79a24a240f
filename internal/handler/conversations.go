// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/middleware"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/service"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
)

// ConversationHandler handles chatbot session endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// Start handles POST /api/v1/chatbot/start
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Start(r.Context(), middleware.GetCitizenID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "start conversation")
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Turns handles GET /api/v1/chatbot/conversations/{id}/messages
func (h *ConversationHandler) Turns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.service.ListTurns(ctx, middleware.GetCitizenID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list messages")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
