package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. 💬 Conversa — /v1/chat/*
// ============================================================

// welcomeHandler devolve a mensagem de boas-vindas e um token de sessão
// novo para o terminal iniciar a conversa.
func welcomeHandler(conv *service.ConversationService, tokens *service.SessionTokens, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/chat/welcome")
		defer span.End()

		resp := &domain.TurnResponse{Message: conv.Welcome()}
		attachSession(resp, SessionIDFromContext(r.Context()), tokens, logger)
		writeJSON(w, http.StatusOK, resp)
	}
}

func commandHandler(conv *service.ConversationService, tokens *service.SessionTokens, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/command")
		defer span.End()

		var req domain.CommandInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Command == "" {
			writeError(w, http.StatusBadRequest, "command is required")
			return
		}

		sessionID := resolveSessionID(ctx, req.SessionID)
		span.SetAttributes(attribute.String("session.id", sessionID))

		resp, err := conv.HandleTurn(ctx, sessionID, req.Command)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		attachSession(resp, sessionID, tokens, logger)
		writeJSON(w, http.StatusOK, resp)
	}
}

func confirmationHandler(conv *service.ConversationService, tokens *service.SessionTokens, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/confirmation")
		defer span.End()

		var req domain.ConfirmationInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sessionID := resolveSessionID(ctx, req.SessionID)
		span.SetAttributes(attribute.String("session.id", sessionID))

		resp, err := conv.HandleConfirmation(ctx, sessionID, req.Type, req.UserResponse)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		attachSession(resp, sessionID, tokens, logger)
		writeJSON(w, http.StatusOK, resp)
	}
}

func cpfHandler(conv *service.ConversationService, tokens *service.SessionTokens, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat/cpf")
		defer span.End()

		var req domain.CPFInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sessionID := resolveSessionID(ctx, req.SessionID)
		span.SetAttributes(attribute.String("session.id", sessionID))

		resp, err := conv.HandleCPF(ctx, sessionID, req.CustomerCPF)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		attachSession(resp, sessionID, tokens, logger)
		writeJSON(w, http.StatusOK, resp)
	}
}

// resolveSessionID prefere o sessionId do body; na ausência, usa o id
// resolvido do token pelo middleware.
func resolveSessionID(ctx context.Context, bodySessionID string) string {
	if bodySessionID != "" {
		return bodySessionID
	}
	return SessionIDFromContext(ctx)
}

// attachSession preenche sessionId e sessionToken na resposta do turno.
func attachSession(resp *domain.TurnResponse, sessionID string, tokens *service.SessionTokens, logger *zap.Logger) {
	resp.SessionID = sessionID
	token, err := tokens.Mint(sessionID)
	if err != nil {
		logger.Warn("failed to mint session token", zap.Error(err))
		return
	}
	resp.SessionToken = token
}
