// Package domain — dispute.go define o registro de disputa (reclamação de
// cobrança indevida) e os tipos de decisão da política de reembolso.
package domain

import "time"

// ============================================================
// Status e ações
// ============================================================

// Status das disputas, nos rótulos que o produto sempre exibiu.
const (
	StatusPending        = "Pendente"
	StatusRefundApproved = "Reembolso Aprovado"
	StatusUpdated        = "Atualizada"
	StatusIgnored        = "Ignorada"
)

// Ações decididas pela política.
const (
	ActionIgnore       = "ignorar"
	ActionAutoRefund   = "aprovar_reembolso_provisorio"
	ActionManualTicket = "abrir_ticket"
)

// DisputeRecord é uma reclamação registrada.
type DisputeRecord struct {
	// ID é um token único de 8 caracteres hexadecimais, imutável.
	ID string `json:"id"`

	// CustomerText é a narrativa da reclamação. Edições aplicam um merge
	// que preserva o contexto original, nunca um overwrite ingênuo.
	CustomerText string `json:"customer_text"`

	// Merchant é o estabelecimento resolvido. Quando resolvido para um
	// estabelecimento conhecido, é "sticky": edições não o apagam a menos
	// que a correção substitua o estabelecimento explicitamente.
	Merchant string `json:"merchant"`

	// AmountCents é o valor em centavos; nil quando nenhum valor foi
	// identificado (ausência não é zero).
	AmountCents *int `json:"amount_cents,omitempty"`

	// Status é atribuído pela política ou pelo fluxo de edição.
	Status string `json:"status"`

	// ActionTaken resume a decisão tomada; regenerado após edições para
	// nunca ficar inconsistente com Merchant/AmountCents.
	ActionTaken string `json:"action_taken"`

	// CreatedAt é imutável.
	CreatedAt time.Time `json:"created_at"`
}

// ============================================================
// Extração e política
// ============================================================

// Extraction é o que os extratores (heurísticos ou IA) tiram de uma
// reclamação antes da política decidir.
type Extraction struct {
	Merchant    string
	AmountCents *int
	IsDispute   bool
	Confidence  float64
}

// Decision é a saída pura da política: função determinística da Extraction.
type Decision struct {
	Action        string
	ActionSummary string
	Merchant      string
	AmountCents   *int
	Status        string
}

// ============================================================
// Intenção de correção (EditDispute)
// ============================================================

// CorrectionIntent classifica o que o usuário quis ao corrigir uma
// reclamação existente; cada intenção tem uma estratégia determinística
// de merge de texto.
type CorrectionIntent string

const (
	IntentAddValue       CorrectionIntent = "ADD_VALUE"
	IntentUpdateValue    CorrectionIntent = "UPDATE_VALUE"
	IntentUpdateMerchant CorrectionIntent = "UPDATE_MERCHANT"
	IntentComplementInfo CorrectionIntent = "COMPLEMENT_INFO"
	IntentFullReplace    CorrectionIntent = "FULL_REPLACE"
)

// ParseCorrectionIntent valida o rótulo devolvido pelo classificador.
// Rótulos fora do contrato caem em FULL_REPLACE (o merge mais conservador).
func ParseCorrectionIntent(label string) CorrectionIntent {
	switch CorrectionIntent(label) {
	case IntentAddValue, IntentUpdateValue, IntentUpdateMerchant, IntentComplementInfo, IntentFullReplace:
		return CorrectionIntent(label)
	}
	return IntentFullReplace
}
