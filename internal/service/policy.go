package service

import (
	"fmt"

	"github.com/IgorSimim/zoopia-go/internal/domain"
)

// Política de reembolso: função pura e determinística da extração.
// Limites fixos do produto, em centavos.
const (
	autoRefundThresholdCents = 5000 // até R$ 50,00
	autoRefundMinConfidence  = 0.7
)

// EvaluatePolicy decide a ação para uma extração:
//  1. não é disputa → ignorar;
//  2. valor presente, ≤ R$ 50,00 e confiança ≥ 0.7 → reembolso provisório
//     automático;
//  3. caso contrário (valor alto ou ausente) → ticket de análise manual.
func EvaluatePolicy(ex domain.Extraction) domain.Decision {
	if !ex.IsDispute {
		return domain.Decision{
			Action:        domain.ActionIgnore,
			ActionSummary: "Não é cobrança indevida.",
			Merchant:      ex.Merchant,
			AmountCents:   ex.AmountCents,
			Status:        domain.StatusIgnored,
		}
	}

	if ex.AmountCents != nil {
		reais := float64(*ex.AmountCents) / 100.0

		if *ex.AmountCents <= autoRefundThresholdCents && ex.Confidence >= autoRefundMinConfidence {
			merchant := ex.Merchant
			if merchant == "" {
				merchant = "estabelecimento"
			}
			return domain.Decision{
				Action:        domain.ActionAutoRefund,
				ActionSummary: fmt.Sprintf("✅ Reembolso automático para %s - R$ %.2f", merchant, reais),
				Merchant:      ex.Merchant,
				AmountCents:   ex.AmountCents,
				Status:        domain.StatusRefundApproved,
			}
		}

		merchant := ex.Merchant
		if merchant == "" {
			merchant = "Estabelecimento"
		}
		return domain.Decision{
			Action:        domain.ActionManualTicket,
			ActionSummary: fmt.Sprintf("📋 Análise manual necessária - %s - R$ %.2f", merchant, reais),
			Merchant:      ex.Merchant,
			AmountCents:   ex.AmountCents,
			Status:        domain.StatusPending,
		}
	}

	merchant := ex.Merchant
	if merchant == "" {
		merchant = "Estabelecimento não identificado"
	}
	return domain.Decision{
		Action:        domain.ActionManualTicket,
		ActionSummary: fmt.Sprintf("📋 Análise manual - %s", merchant),
		Merchant:      ex.Merchant,
		Status:        domain.StatusPending,
	}
}
