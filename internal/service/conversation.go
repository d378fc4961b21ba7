package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/port"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Mensagens fixas da conversa.
const (
	msgWelcome = "=== 🤖 ZoopIA ===\nSistema de análise automática de cobranças indevidas\n----------------------------------------"

	msgGoodbye = "👋 Encerrando ZoopIA. Até logo!\n========================================"

	msgZoopQuestion = "🤔 Você prefere CONSULTAR seus boletos da Zoop ou ABRIR UMA RECLAMAÇÃO?"

	msgConfirmRetry = "🤔 Não consegui identificar claramente. Você prefere CONSULTAR seus boletos da Zoop ou ABRIR UMA RECLAMAÇÃO?"

	msgConfirmLiteral = "🤔 Ainda não consegui identificar. Responda exatamente com a palavra CONSULTAR ou RECLAMAR."

	msgAskCPF = "👤 Para consulta, preciso do seu CPF:"

	msgAskCPFLookup = "👤 Por favor, informe seu CPF (somente números ou formato padrão) para consulta:"

	msgAskDetails = "📝 Entendi que você quer abrir uma reclamação. Por favor, descreva o problema com mais detalhes:"

	msgAskMerchant = "🏪 Não consegui identificar o estabelecimento da cobrança. Qual é o nome do estabelecimento?"

	msgMerchantBlocked = "❌ Esse nome contém termos não permitidos. Informe o nome do estabelecimento:"

	msgNotComplaint = "🤔 Não consegui identificar claramente uma reclamação de cobrança. Pode descrever o problema com mais detalhes (ex: 'quero reclamar de uma cobrança não reconhecida de R$ 150,00')?"

	msgNotUnderstood = "🤔 Não entendi. Tente:\n" +
		"   • 'verifiquei uma compra no boleto' (para CONSULTAR origem)\n" +
		"   • 'quero reclamar de uma cobrança' (para RECLAMAR)\n" +
		"   • 'listar reclamações'\n" +
		"   • 'listar empresas'"

	msgGenericFailure = "\n❌ Ops! Algo deu errado.\n\n💡 Tente reformular sua mensagem.\n"

	msgDisputeHint = "\n\n💡 Dica: Use 'listar reclamações' para ver todas as disputas."
)

// maxClarifyAttempts limita as re-classificações automáticas na etapa de
// confirmação antes de exigir a palavra exata.
const maxClarifyAttempts = 2

// ConversationService é a máquina de estados conversacional: decide, a
// partir da etapa atual e da nova mensagem, o que perguntar ou executar.
// Cada turno roda sob o lock da sessão (um escritor por sessão); o estado
// só é persistido quando o turno termina sem erro inesperado, então o
// usuário pode repetir a mesma etapa após uma falha.
type ConversationService struct {
	sessions          port.SessionStore
	disputes          port.DisputeManager
	lookup            port.InvoiceSearcher
	classifier        port.Classifier
	extract           Extractors
	classifierTimeout time.Duration
	metrics           *observability.Metrics
	logger            *zap.Logger
}

// NewConversationService cria a máquina de estados com as dependências
// injetadas.
func NewConversationService(
	sessions port.SessionStore,
	disputes port.DisputeManager,
	lookup port.InvoiceSearcher,
	classifier port.Classifier,
	extract Extractors,
	classifierTimeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		sessions:          sessions,
		disputes:          disputes,
		lookup:            lookup,
		classifier:        classifier,
		extract:           extract,
		classifierTimeout: classifierTimeout,
		metrics:           metrics,
		logger:            logger,
	}
}

// Welcome devolve a mensagem de boas-vindas exibida pelo terminal.
func (c *ConversationService) Welcome() string { return msgWelcome }

// ============================================================
// Turno principal
// ============================================================

// HandleTurn processa um comando em texto livre para a sessão dada.
// Falhas inesperadas viram uma mensagem genérica de desculpas e o estado
// da sessão fica intacto.
func (c *ConversationService) HandleTurn(ctx context.Context, sessionID, command string) (*domain.TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.HandleTurn")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := time.Now()
	defer func() {
		c.metrics.RecordRequestDuration("turn", time.Since(start))
	}()

	command = strings.TrimSpace(command)
	if command == "" {
		return &domain.TurnResponse{Message: "❌ Comando vazio."}, nil
	}

	release := c.sessions.Lock(sessionID)
	defer release()

	state := c.loadState(sessionID)

	// Despedida encerra a conversa em qualquer etapa.
	if isFarewell(command) {
		c.sessions.Clear(sessionID)
		return &domain.TurnResponse{Message: msgGoodbye, IsExit: true}, nil
	}

	state.AppendHistory("usuário", command)

	resp, err := c.dispatch(ctx, state, command)
	if err != nil {
		c.logger.Error("turn failed",
			zap.String("session_id", sessionID),
			zap.String("step", string(state.CurrentStep)),
			zap.Error(err),
		)
		return &domain.TurnResponse{Message: msgGenericFailure}, nil
	}

	state.AppendHistory("zoopia", resp.Message)
	c.sessions.Save(sessionID, state)
	return resp, nil
}

func (c *ConversationService) loadState(sessionID string) *domain.ConversationState {
	if state, ok := c.sessions.Load(sessionID); ok {
		return state
	}
	return domain.NewConversationState()
}

// dispatch roteia o comando conforme a etapa atual da sessão.
func (c *ConversationService) dispatch(ctx context.Context, state *domain.ConversationState, command string) (*domain.TurnResponse, error) {
	switch state.CurrentStep {
	case domain.StepAwaitingMerchant:
		return c.handleMerchantReply(ctx, state, command)

	case domain.StepAwaitingConfirmation:
		return c.resolveConfirmation(ctx, state, command)

	case domain.StepAwaitingDetails:
		return c.createDispute(ctx, state, command)

	case domain.StepAwaitingCPF:
		return c.handleCPFReply(ctx, state, command)

	case domain.StepQueryDone:
		if c.extract.IsLikelyComplaint(command) {
			// Reclamação emendada na consulta aproveita o contexto anterior.
			seed := command
			if state.PreviousMessage != "" {
				seed = state.PreviousMessage + " - " + command
			}
			return c.createDispute(ctx, state, seed)
		}
		state.Transition(domain.StepNormal, "")
		return c.handleNormal(ctx, state, command)
	}

	return c.handleNormal(ctx, state, command)
}

// ============================================================
// Etapa normal: comandos diretos, gatilho Zoop e roteamento de intenção
// ============================================================

func (c *ConversationService) handleNormal(ctx context.Context, state *domain.ConversationState, command string) (*domain.TurnResponse, error) {
	lowered := strings.ToLower(command)

	// Comandos diretos, sem classificador.
	switch {
	case lowered == "listar empresas":
		msg, err := c.lookup.ListCompanies(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.TurnResponse{Message: "🏢 " + msg}, nil

	case lowered == "listar" || lowered == "listar reclamações" || lowered == "listar reclamacoes":
		_, msg, err := c.disputes.ListDisputes(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.TurnResponse{Message: "📋 " + msg}, nil
	}

	if id, ok := strings.CutPrefix(lowered, "mostrar "); ok {
		return c.showDisputeByID(ctx, strings.TrimSpace(id))
	}

	if id, ok := strings.CutPrefix(lowered, "excluir "); ok {
		return c.deleteDisputeByID(ctx, strings.TrimSpace(id))
	}

	// O prefixo casa na cópia minúscula, mas a correção é fatiada do
	// comando original para preservar maiúsculas do texto do usuário.
	if strings.HasPrefix(lowered, "editar ") {
		rest := strings.TrimSpace(command[len("editar "):])
		id, correction, found := strings.Cut(rest, " ")
		if !found || strings.TrimSpace(correction) == "" {
			return &domain.TurnResponse{Message: "✏️ Use: editar <id> <texto de correção>"}, nil
		}
		_, msg, err := c.disputes.EditDispute(ctx, strings.ToLower(id), strings.TrimSpace(correction))
		if isNotFound(err) {
			return &domain.TurnResponse{Message: msg}, nil
		}
		if err != nil {
			return nil, err
		}
		return &domain.TurnResponse{Message: msg}, nil
	}

	// Gatilho do tópico Zoop: menção à plataforma sem ser comando curto
	// abre a pergunta de duas opções.
	if strings.Contains(lowered, "zoop") && len(strings.Fields(command)) > 1 {
		state.PreviousMessage = command
		state.Transition(domain.StepAwaitingConfirmation, "zoop_intent")
		return &domain.TurnResponse{
			Message:              msgZoopQuestion,
			RequiresConfirmation: true,
			ConfirmationType:     "zoop_intent",
		}, nil
	}

	// Verificação direta para consulta de boletos, antes do classificador.
	if c.extract.ContainsInvoiceKeywords(command) {
		return c.beginCPFCollection(state), nil
	}

	routed := c.routeIntent(ctx, command)
	switch routed.route {
	case routeInvoiceLookup:
		return c.beginCPFCollection(state), nil

	case routeListDisputes:
		_, msg, err := c.disputes.ListDisputes(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.TurnResponse{Message: "📋 " + msg}, nil

	case routeShowDispute:
		if routed.disputeID == "" {
			return &domain.TurnResponse{Message: "🔎 Qual o id da reclamação? Use: mostrar <id>"}, nil
		}
		return c.showDisputeByID(ctx, routed.disputeID)

	case routeDeleteDispute:
		if routed.disputeID == "" {
			return &domain.TurnResponse{Message: "🗑️ Qual o id da reclamação? Use: excluir <id>"}, nil
		}
		return c.deleteDisputeByID(ctx, routed.disputeID)

	case routeAddDispute:
		// Evita criação automática quando a entrada não parece reclamação.
		if !c.extract.IsLikelyComplaint(command) {
			return &domain.TurnResponse{Message: msgNotComplaint}, nil
		}
		return c.createDispute(ctx, state, command)
	}

	return &domain.TurnResponse{Message: msgNotUnderstood}, nil
}

func (c *ConversationService) showDisputeByID(ctx context.Context, id string) (*domain.TurnResponse, error) {
	_, msg, err := c.disputes.ShowDispute(ctx, id)
	if isNotFound(err) {
		return &domain.TurnResponse{Message: msg}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.TurnResponse{Message: msg}, nil
}

func (c *ConversationService) deleteDisputeByID(ctx context.Context, id string) (*domain.TurnResponse, error) {
	msg, err := c.disputes.DeleteDispute(ctx, id)
	if isNotFound(err) {
		return &domain.TurnResponse{Message: msg}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.TurnResponse{Message: msg}, nil
}

type intentRoute int

const (
	routeUnknown intentRoute = iota
	routeInvoiceLookup
	routeAddDispute
	routeListDisputes
	routeShowDispute
	routeDeleteDispute
)

// routedIntent é a decisão do roteador: a operação escolhida e os
// parâmetros que o classificador extraiu da frase (hoje só o id).
type routedIntent struct {
	route     intentRoute
	disputeID string
}

// routeIntent consulta o classificador sob timeout; em falha, cai nas
// heurísticas de palavra-chave. Erros do classificador nunca chegam ao
// usuário.
func (c *ConversationService) routeIntent(ctx context.Context, command string) routedIntent {
	cctx, cancel := context.WithTimeout(ctx, c.classifierTimeout)
	defer cancel()

	raw, err := c.classifier.Classify(cctx, intentRoutingPrompt(command))
	if err != nil {
		c.logger.Warn("intent routing via classifier failed, using keyword fallback", zap.Error(err))
		c.metrics.IncrClassifierFallback("routing")
		return c.routeByKeywords(command)
	}

	cleaned := cleanModelJSON(raw)
	plugin := gjson.Get(cleaned, "plugin").String()
	function := gjson.Get(cleaned, "function").String()
	plugin = strings.TrimSpace(strings.NewReplacer("Plugin ", "", "plugin ", "").Replace(plugin))

	switch {
	case strings.EqualFold(plugin, "BoletoLookup"):
		return routedIntent{route: routeInvoiceLookup}

	case strings.EqualFold(plugin, "Disputes"):
		id := strings.ToLower(strings.TrimSpace(gjson.Get(cleaned, "parameters.id").String()))
		switch {
		case strings.EqualFold(function, "ListDisputes"):
			return routedIntent{route: routeListDisputes}
		case strings.EqualFold(function, "ShowDispute"):
			return routedIntent{route: routeShowDispute, disputeID: id}
		case strings.EqualFold(function, "DeleteDispute"):
			return routedIntent{route: routeDeleteDispute, disputeID: id}
		}
		// AddDispute ou função desconhecida: vale como nova reclamação.
		return routedIntent{route: routeAddDispute}
	}
	return c.routeByKeywords(command)
}

func (c *ConversationService) routeByKeywords(command string) routedIntent {
	if c.extract.ContainsInvoiceKeywords(command) {
		return routedIntent{route: routeInvoiceLookup}
	}
	if c.extract.IsLikelyComplaint(command) {
		return routedIntent{route: routeAddDispute}
	}
	return routedIntent{route: routeUnknown}
}

func (c *ConversationService) beginCPFCollection(state *domain.ConversationState) *domain.TurnResponse {
	state.Transition(domain.StepAwaitingCPF, "cpf")
	return &domain.TurnResponse{
		Message:          msgAskCPFLookup,
		RequiresCPFInput: true,
	}
}

// ============================================================
// Criação de disputa a partir da conversa
// ============================================================

// createDispute registra a reclamação e trata os sinais de controle:
// estabelecimento ausente vira a etapa awaiting_merchant (guardando o
// texto original), conteúdo bloqueado re-pergunta sem mudar de etapa.
func (c *ConversationService) createDispute(ctx context.Context, state *domain.ConversationState, text string) (*domain.TurnResponse, error) {
	_, msg, err := c.disputes.AddDispute(ctx, text)
	if err != nil {
		var needsMerchant *domain.ErrMerchantRequired
		if errors.As(err, &needsMerchant) {
			state.PreviousMessage = needsMerchant.OriginalText
			state.Transition(domain.StepAwaitingMerchant, "merchant_required")
			return &domain.TurnResponse{Message: msgAskMerchant}, nil
		}
		var blocked *domain.ErrContentPolicy
		if errors.As(err, &blocked) {
			return &domain.TurnResponse{Message: msgMerchantBlocked}, nil
		}
		return nil, err
	}

	state.PreviousMessage = ""
	state.Transition(domain.StepNormal, "")
	return &domain.TurnResponse{Message: msg + msgDisputeHint}, nil
}

// handleMerchantReply recebe o nome do estabelecimento na etapa
// awaiting_merchant. Nome reprovado no filtro re-pergunta sem mudar de
// etapa; a sessão permanece em awaiting_merchant até um nome válido.
func (c *ConversationService) handleMerchantReply(ctx context.Context, state *domain.ConversationState, merchant string) (*domain.TurnResponse, error) {
	_, msg, err := c.disputes.AddDisputeWithMerchant(ctx, state.PreviousMessage, merchant)
	if err != nil {
		var blocked *domain.ErrContentPolicy
		if errors.As(err, &blocked) {
			return &domain.TurnResponse{Message: msgMerchantBlocked}, nil
		}
		var invalid *domain.ErrValidation
		if errors.As(err, &invalid) {
			return &domain.TurnResponse{Message: msgAskMerchant}, nil
		}
		return nil, err
	}

	state.PreviousMessage = ""
	state.Transition(domain.StepNormal, "")
	return &domain.TurnResponse{Message: msg + msgDisputeHint}, nil
}

// ============================================================
// Confirmação consulta × reclamação
// ============================================================

// HandleConfirmation processa a resposta em texto natural à pergunta de
// duas opções (endpoint dedicado).
func (c *ConversationService) HandleConfirmation(ctx context.Context, sessionID, confirmationType, userResponse string) (*domain.TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.HandleConfirmation")
	defer span.End()

	if strings.TrimSpace(userResponse) == "" || strings.TrimSpace(confirmationType) == "" {
		return &domain.TurnResponse{Message: "❌ Confirmação inválida."}, nil
	}

	release := c.sessions.Lock(sessionID)
	defer release()

	state := c.loadState(sessionID)
	state.AppendHistory("usuário", userResponse)

	resp, err := c.resolveConfirmation(ctx, state, userResponse)
	if err != nil {
		c.logger.Error("confirmation failed", zap.String("session_id", sessionID), zap.Error(err))
		return &domain.TurnResponse{Message: msgGenericFailure}, nil
	}
	if resp.ConfirmationType == "" && resp.RequiresConfirmation {
		resp.ConfirmationType = confirmationType
	}

	state.AppendHistory("zoopia", resp.Message)
	c.sessions.Save(sessionID, state)
	return resp, nil
}

// resolveConfirmation decide entre consulta e reclamação. Resposta não
// resolvida repete a mesma pergunta (idempotente) e, depois do limite de
// tentativas automáticas, exige a palavra literal.
func (c *ConversationService) resolveConfirmation(ctx context.Context, state *domain.ConversationState, userResponse string) (*domain.TurnResponse, error) {
	switch c.extract.DetectConfirmationIntent(userResponse) {
	case DecisionConsult:
		state.Transition(domain.StepAwaitingCPF, "cpf")
		return &domain.TurnResponse{
			Message:          msgAskCPF,
			RequiresCPFInput: true,
		}, nil

	case DecisionComplaint:
		if state.PreviousMessage != "" && c.extract.IsLikelyComplaint(state.PreviousMessage) {
			return c.createDispute(ctx, state, state.PreviousMessage)
		}
		state.Transition(domain.StepAwaitingDetails, "complaint_details")
		return &domain.TurnResponse{Message: msgAskDetails}, nil
	}

	// Não resolvido: re-pergunta sem avançar a etapa.
	state.ClarifyAttempts++
	state.CurrentStep = domain.StepAwaitingConfirmation
	msg := msgConfirmRetry
	if state.ClarifyAttempts >= maxClarifyAttempts {
		msg = msgConfirmLiteral
	}
	return &domain.TurnResponse{
		Message:              msg,
		RequiresConfirmation: true,
		ConfirmationType:     state.ExpectedResponseType,
	}, nil
}

// ============================================================
// CPF e consulta de boletos
// ============================================================

// HandleCPF executa a consulta de boletos para o CPF informado
// (endpoint dedicado).
func (c *ConversationService) HandleCPF(ctx context.Context, sessionID, cpf string) (*domain.TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "ConversationService.HandleCPF")
	defer span.End()

	if strings.TrimSpace(cpf) == "" {
		return &domain.TurnResponse{Message: "❌ CPF não informado."}, nil
	}

	release := c.sessions.Lock(sessionID)
	defer release()

	state := c.loadState(sessionID)
	resp, err := c.handleCPFReply(ctx, state, cpf)
	if err != nil {
		c.logger.Error("cpf lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return &domain.TurnResponse{Message: msgGenericFailure}, nil
	}

	c.sessions.Save(sessionID, state)
	return resp, nil
}

func (c *ConversationService) handleCPFReply(ctx context.Context, state *domain.ConversationState, cpf string) (*domain.TurnResponse, error) {
	normalized := normalizeCPF(cpf)
	if normalized == "" {
		// Forma inválida: re-pergunta sem mudar de etapa.
		return &domain.TurnResponse{
			Message:          "❌ CPF inválido. Informe 11 dígitos (somente números ou formato padrão):",
			RequiresCPFInput: true,
		}, nil
	}

	result, err := c.lookup.SearchByCPF(ctx, normalized)
	if err != nil {
		return nil, err
	}

	state.PreviousMessage = "Consulta de boletos para o CPF " + normalized
	state.Transition(domain.StepQueryDone, "")
	msg := fmt.Sprintf("🔍 Consultando boletos para o CPF: %s...\n\n%s", cpf, result)
	return &domain.TurnResponse{Message: msg}, nil
}

// normalizeCPF aceita o formato padrão (000.000.000-00) ou somente
// dígitos; devolve os 11 dígitos ou "" quando a forma não bate.
func normalizeCPF(cpf string) string {
	var digits strings.Builder
	for _, r := range cpf {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
			// separadores aceitos
		default:
			return ""
		}
	}
	if digits.Len() != 11 {
		return ""
	}
	return digits.String()
}

// ============================================================
// Auxiliares
// ============================================================

var farewellPrefixes = []string{"sair", "exit", "tchau", "até logo", "ate logo"}

func isFarewell(command string) bool {
	lowered := strings.ToLower(strings.TrimSpace(command))
	for _, p := range farewellPrefixes {
		if lowered == p || strings.HasPrefix(lowered, p+" ") {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var notFound *domain.ErrNotFound
	return errors.As(err, &notFound)
}
