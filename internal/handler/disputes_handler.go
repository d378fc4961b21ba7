package handler

import (
	"encoding/json"
	"net/http"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/port"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 2. 📩 Reclamações — /v1/disputes
// ============================================================

func listDisputesHandler(svc port.DisputeManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/disputes")
		defer span.End()

		list, msg, err := svc.ListDisputes(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if list == nil {
			list = []domain.DisputeRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"disputes": list,
			"message":  msg,
		})
	}
}

func createDisputeHandler(svc port.DisputeManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/disputes")
		defer span.End()

		var req struct {
			Text     string `json:"text"`
			Merchant string `json:"merchant,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Text == "" {
			writeError(w, http.StatusBadRequest, "text is required")
			return
		}

		var (
			record *domain.DisputeRecord
			msg    string
			err    error
		)
		if req.Merchant != "" {
			record, msg, err = svc.AddDisputeWithMerchant(ctx, req.Text, req.Merchant)
		} else {
			record, msg, err = svc.AddDispute(ctx, req.Text)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("dispute.id", record.ID))

		writeJSON(w, http.StatusCreated, map[string]any{
			"dispute": record,
			"message": msg,
		})
	}
}

func getDisputeHandler(svc port.DisputeManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/disputes/{disputeId}")
		defer span.End()

		id := chi.URLParam(r, "disputeId")
		span.SetAttributes(attribute.String("dispute.id", id))

		record, msg, err := svc.ShowDispute(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"dispute": record,
			"message": msg,
		})
	}
}

func editDisputeHandler(svc port.DisputeManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/disputes/{disputeId}")
		defer span.End()

		id := chi.URLParam(r, "disputeId")
		span.SetAttributes(attribute.String("dispute.id", id))

		var req struct {
			Correction string `json:"correction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Correction == "" {
			writeError(w, http.StatusBadRequest, "correction is required")
			return
		}

		record, msg, err := svc.EditDispute(ctx, id, req.Correction)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"dispute": record,
			"message": msg,
		})
	}
}

func deleteDisputeHandler(svc port.DisputeManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/disputes/{disputeId}")
		defer span.End()

		id := chi.URLParam(r, "disputeId")
		span.SetAttributes(attribute.String("dispute.id", id))

		msg, err := svc.DeleteDispute(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: msg, ID: id})
	}
}
