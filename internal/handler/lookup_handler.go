package handler

import (
	"net/http"

	"github.com/IgorSimim/zoopia-go/internal/port"

	"go.uber.org/zap"
)

// ============================================================
// 3. 📄 Boletos e empresas — /v1/invoices, /v1/companies
// ============================================================

// invoiceSearchHandler busca boletos por CPF (?cpf=) ou por nome do
// cliente (?name=).
func invoiceSearchHandler(svc port.InvoiceSearcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/search")
		defer span.End()

		cpf := r.URL.Query().Get("cpf")
		name := r.URL.Query().Get("name")
		if cpf == "" && name == "" {
			writeError(w, http.StatusBadRequest, "cpf or name query parameter is required")
			return
		}

		var (
			msg string
			err error
		)
		if cpf != "" {
			msg, err = svc.SearchByCPF(ctx, cpf)
		} else {
			msg, err = svc.SearchByName(ctx, name)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}

func listCompaniesHandler(svc port.InvoiceSearcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies")
		defer span.End()

		msg, err := svc.ListCompanies(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}
