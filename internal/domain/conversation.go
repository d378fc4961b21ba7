// Package domain — conversation.go define o estado conversacional do ZoopIA.
//
// O chat é stateless no transporte: cada turno chega como um POST isolado.
// Quem dá continuidade à conversa é o ConversationState, guardado por
// sessão no session store e mutado a cada turno.
package domain

import "time"

// ============================================================
// Etapas da conversa (state machine)
// ============================================================

// Step identifica a etapa atual da conversa. A etapa determina quais
// entradas o próximo turno aceita: fora de StepNormal, a mensagem precisa
// cumprir o contrato da etapa (CPF, estabelecimento, confirmação) ou cair
// explicitamente na classificação geral de intenção.
type Step string

const (
	// StepNormal — fluxo livre: comandos diretos e classificação de intenção.
	StepNormal Step = "normal"

	// StepAwaitingCPF — aguardando o CPF para a consulta de boletos.
	StepAwaitingCPF Step = "awaiting_cpf"

	// StepAwaitingMerchant — reclamação pendente sem estabelecimento
	// identificável; aguardando o nome do estabelecimento.
	StepAwaitingMerchant Step = "awaiting_merchant"

	// StepAwaitingConfirmation — aguardando o usuário escolher entre
	// CONSULTAR boletos e ABRIR uma reclamação.
	StepAwaitingConfirmation Step = "awaiting_confirmation_option"

	// StepAwaitingDetails — o usuário sinalizou reclamação mas ainda não
	// descreveu o problema.
	StepAwaitingDetails Step = "awaiting_complaint_details"

	// StepQueryDone — consulta de boletos concluída; uma reclamação na
	// sequência aproveita o contexto da consulta.
	StepQueryDone Step = "query_done"
)

// maxHistoryEntries limita o histórico de conversa por sessão (FIFO).
const maxHistoryEntries = 10

// ConversationState é o estado de uma sessão de chat. Criado no primeiro
// acesso, mutado a cada turno, e descartado apenas no reset (despedida)
// ou por expiração de TTL no session store.
type ConversationState struct {
	// CurrentStep determina o que a máquina espera do próximo turno.
	CurrentStep Step `json:"current_step"`

	// PreviousMessage carrega a mensagem anterior como contexto — por
	// exemplo, o texto original da reclamação enquanto aguardamos o nome
	// do estabelecimento.
	PreviousMessage string `json:"previous_message,omitempty"`

	// ExpectedResponseType é uma dica livre para a UI sobre o tipo de
	// resposta esperada ("zoop_intent", "merchant_required", ...). Não é
	// usado para branching — quem decide é CurrentStep.
	ExpectedResponseType string `json:"expected_response_type,omitempty"`

	// ClarifyAttempts conta quantas vezes a confirmação automática falhou
	// em StepAwaitingConfirmation. Depois do limite, pedimos a palavra
	// exata em vez de re-classificar para sempre.
	ClarifyAttempts int `json:"clarify_attempts,omitempty"`

	// ConversationHistory guarda entradas "remetente: texto" para resumos
	// contextuais. Nunca é autoritativo; máximo de 10 entradas, a mais
	// antiga sai primeiro.
	ConversationHistory []string `json:"conversation_history,omitempty"`

	// LastUpdate é atualizado em toda mutação.
	LastUpdate time.Time `json:"last_update"`
}

// NewConversationState cria um estado zerado em StepNormal.
func NewConversationState() *ConversationState {
	return &ConversationState{
		CurrentStep: StepNormal,
		LastUpdate:  time.Now(),
	}
}

// AppendHistory registra uma entrada "remetente: texto" respeitando o
// teto de 10 entradas (FIFO).
func (s *ConversationState) AppendHistory(sender, text string) {
	s.ConversationHistory = append(s.ConversationHistory, sender+": "+text)
	if len(s.ConversationHistory) > maxHistoryEntries {
		s.ConversationHistory = s.ConversationHistory[len(s.ConversationHistory)-maxHistoryEntries:]
	}
	s.LastUpdate = time.Now()
}

// Transition muda a etapa e a dica de resposta esperada num único ponto,
// mantendo LastUpdate consistente.
func (s *ConversationState) Transition(step Step, expectedResponse string) {
	s.CurrentStep = step
	s.ExpectedResponseType = expectedResponse
	if step != StepAwaitingConfirmation {
		s.ClarifyAttempts = 0
	}
	s.LastUpdate = time.Now()
}

// ============================================================
// Turno — request/response com a camada HTTP
// ============================================================

// CommandInput é o body do POST /v1/chat/command.
type CommandInput struct {
	SessionID string `json:"sessionId,omitempty"`
	Command   string `json:"command"`
}

// ConfirmationInput é o body do POST /v1/chat/confirmation — a resposta
// em texto livre à pergunta de duas opções (consultar × reclamar).
type ConfirmationInput struct {
	SessionID    string `json:"sessionId,omitempty"`
	Type         string `json:"type"` // ex: "zoop_intent"
	UserResponse string `json:"userResponse"`
}

// CPFInput é o body do POST /v1/chat/cpf.
type CPFInput struct {
	SessionID   string `json:"sessionId,omitempty"`
	CustomerCPF string `json:"customerCpf"`
}

// TurnResponse é o que cada turno devolve para a UI do terminal.
type TurnResponse struct {
	Message              string `json:"message"`
	RequiresCPFInput     bool   `json:"requiresCpfInput"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	ConfirmationType     string `json:"confirmationType,omitempty"`
	IsExit               bool   `json:"isExit"`

	// SessionID e SessionToken permitem ao cliente retomar a conversa no
	// próximo POST (o token é um JWT assinado com o claim sid).
	SessionID    string `json:"sessionId,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
}
