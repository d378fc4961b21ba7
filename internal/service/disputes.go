package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/port"

	"github.com/jaevor/go-nanoid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/zoopia")

// amountValuePattern localiza valores "R$ 123,45" dentro de texto livre,
// para substituição durante edições.
var amountValuePattern = regexp.MustCompile(`R\$\s*\d+[,.]?\d*`)

// actionValuePattern localiza o par "estabelecimento - valor" dentro do
// resumo de ação, para regeneração após edições.
var actionValuePattern = regexp.MustCompile(`(\w+)\s*-\s*R\$\s*\d+[,.]?\d*`)

// Mensagens fixas do produto.
const msgDisputeNotFound = "❌ Não encontrei essa reclamação."

// DisputeService implementa o ciclo de vida das reclamações: criação com
// extração heurística + classificador, edição com preservação de contexto,
// listagem, consulta e remoção. A lista inteira é carregada e salva a cada
// operação (last-write-wins em edições concorrentes).
type DisputeService struct {
	store      port.DisputeStore
	classifier port.Classifier
	extract    Extractors
	metrics    *observability.Metrics
	logger     *zap.Logger
	newID      func() string
}

// NewDisputeService cria o serviço de disputas. Os ids são tokens de 8
// caracteres hexadecimais gerados por nanoid.
func NewDisputeService(
	store port.DisputeStore,
	classifier port.Classifier,
	extract Extractors,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*DisputeService, error) {
	newID, err := nanoid.CustomASCII("0123456789abcdef", 8)
	if err != nil {
		return nil, fmt.Errorf("nanoid generator: %w", err)
	}
	return &DisputeService{
		store:      store,
		classifier: classifier,
		extract:    extract,
		metrics:    metrics,
		logger:     logger,
		newID:      newID,
	}, nil
}

func formatReais(cents int) string {
	return fmt.Sprintf("R$ %.2f", float64(cents)/100.0)
}

// cleanModelJSON remove cercas de markdown que alguns modelos colocam em
// volta do JSON.
func cleanModelJSON(response string) string {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ============================================================
// Criação
// ============================================================

// AddDispute registra uma reclamação. O estabelecimento é resolvido
// primeiro por heurística (registro de conhecidos), depois pelo
// classificador; se nenhum dos dois resolve, devolve ErrMerchantRequired
// com o texto original — o chamador precisa coletar o estabelecimento,
// nunca gravamos "desconhecido" por este caminho.
func (s *DisputeService) AddDispute(ctx context.Context, text string) (*domain.DisputeRecord, string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.AddDispute")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, "", &domain.ErrValidation{Field: "complaint", Message: "texto vazio"}
	}

	ext := domain.Extraction{
		Merchant:    s.extract.ExtractMerchant(text),
		AmountCents: s.extract.ExtractAmountCents(text),
		IsDispute:   true,
		Confidence:  0.9,
	}

	if ext.Merchant == "" {
		aiExt := s.extractWithClassifier(ctx, text)
		ext.Merchant = aiExt.Merchant
		ext.IsDispute = aiExt.IsDispute
		ext.Confidence = aiExt.Confidence
		if ext.AmountCents == nil {
			ext.AmountCents = aiExt.AmountCents
		}
	}

	if ext.Merchant == "" {
		return nil, "", &domain.ErrMerchantRequired{OriginalText: text}
	}
	if s.extract.ContainsBlocked(ext.Merchant) {
		return nil, "", &domain.ErrContentPolicy{Field: "merchant"}
	}

	return s.createRecord(ctx, text, ext)
}

// AddDisputeWithMerchant registra uma reclamação com estabelecimento
// fornecido pelo chamador (fluxo awaiting_merchant). O nome passa apenas
// pelo filtro de conteúdo, sem re-extração.
func (s *DisputeService) AddDisputeWithMerchant(ctx context.Context, text, merchant string) (*domain.DisputeRecord, string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.AddDisputeWithMerchant")
	defer span.End()

	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return nil, "", &domain.ErrValidation{Field: "merchant", Message: "estabelecimento vazio"}
	}
	if s.extract.ContainsBlocked(merchant) {
		return nil, "", &domain.ErrContentPolicy{Field: "merchant"}
	}

	ext := domain.Extraction{
		Merchant:    merchant,
		AmountCents: s.extract.ExtractAmountCents(text),
		IsDispute:   true,
		Confidence:  0.9,
	}
	return s.createRecord(ctx, text, ext)
}

func (s *DisputeService) createRecord(ctx context.Context, text string, ext domain.Extraction) (*domain.DisputeRecord, string, error) {
	decision := EvaluatePolicy(ext)
	s.metrics.IncrDisputeDecision(decision.Action)

	list, err := s.store.LoadDisputes(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load disputes: %w", err)
	}

	record := domain.DisputeRecord{
		ID:           s.newID(),
		CustomerText: text,
		Merchant:     decision.Merchant,
		AmountCents:  decision.AmountCents,
		Status:       decision.Status,
		ActionTaken:  decision.ActionSummary,
		CreatedAt:    time.Now().UTC(),
	}
	list = append(list, record)

	if err := s.store.SaveDisputes(ctx, list); err != nil {
		return nil, "", fmt.Errorf("save disputes: %w", err)
	}

	s.logger.Info("dispute created",
		zap.String("dispute_id", record.ID),
		zap.String("merchant", record.Merchant),
		zap.String("action", decision.Action),
	)

	msg := fmt.Sprintf("📩 Reclamação registrada (id: %s).\n🤖 Decisão da IA: %s\nResumo: %s",
		record.ID, decision.Action, decision.ActionSummary)
	return &record, msg, nil
}

// extractWithClassifier pede ao modelo a extração estruturada. Qualquer
// falha (transporte, JSON inválido) cai no fallback conservador: disputa
// sem campos e confiança 0.3, que a política encaminha para análise manual.
func (s *DisputeService) extractWithClassifier(ctx context.Context, text string) domain.Extraction {
	fallback := domain.Extraction{IsDispute: true, Confidence: 0.3}

	raw, err := s.classifier.Classify(ctx, extractionPrompt(text))
	if err != nil {
		s.logger.Warn("classifier extraction failed, using conservative fallback", zap.Error(err))
		s.metrics.IncrClassifierFallback("extraction")
		return fallback
	}

	cleaned := cleanModelJSON(raw)
	if !gjson.Valid(cleaned) {
		s.logger.Warn("classifier returned invalid JSON", zap.String("response", cleaned))
		s.metrics.IncrClassifierFallback("extraction")
		return fallback
	}

	ext := domain.Extraction{
		Merchant:   gjson.Get(cleaned, "merchant").String(),
		IsDispute:  gjson.Get(cleaned, "isDispute").Bool(),
		Confidence: gjson.Get(cleaned, "confidence").Float(),
	}
	if amount := gjson.Get(cleaned, "amount_cents"); amount.Exists() && amount.Type != gjson.Null {
		v := int(amount.Int())
		ext.AmountCents = &v
	}
	return ext
}

// ============================================================
// Edição
// ============================================================

// EditDispute aplica uma correção a uma reclamação existente. A intenção
// da correção é classificada (ADD_VALUE, UPDATE_VALUE, UPDATE_MERCHANT,
// COMPLEMENT_INFO, FULL_REPLACE) e cada intenção tem um merge de texto
// determinístico. Estabelecimento conhecido é preservado; o valor segue a
// precedência correção > re-extração > valor anterior; o resumo de ação é
// regenerado para nunca ficar inconsistente.
func (s *DisputeService) EditDispute(ctx context.Context, id, correction string) (*domain.DisputeRecord, string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.EditDispute")
	defer span.End()
	span.SetAttributes(attribute.String("dispute.id", id))

	list, err := s.store.LoadDisputes(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load disputes: %w", err)
	}
	idx := findDispute(list, id)
	if idx < 0 {
		return nil, msgDisputeNotFound, &domain.ErrNotFound{Resource: "dispute", ID: id}
	}
	old := list[idx]

	newText := s.preserveContextUpdate(ctx, old.CustomerText, correction)

	recomputed := domain.Extraction{
		Merchant:    s.extract.ExtractMerchant(newText),
		AmountCents: s.extract.ExtractAmountCents(newText),
		IsDispute:   true,
		Confidence:  0.9,
	}
	if recomputed.Merchant == "" {
		aiExt := s.extractWithClassifier(ctx, newText)
		recomputed.Merchant = aiExt.Merchant
		if recomputed.AmountCents == nil {
			recomputed.AmountCents = aiExt.AmountCents
		}
	}

	finalMerchant := s.preserveKnownMerchant(old.Merchant, recomputed.Merchant)

	finalAmount := old.AmountCents
	if recomputed.AmountCents != nil {
		finalAmount = recomputed.AmountCents
	}
	if corrAmount := s.extract.ExtractAmountCents(correction); corrAmount != nil {
		finalAmount = corrAmount
	}

	updated := old
	updated.CustomerText = newText
	updated.Merchant = finalMerchant
	updated.AmountCents = finalAmount
	updated.Status = domain.StatusUpdated
	updated.ActionTaken = updateActionWithNewValues(old.ActionTaken, finalMerchant, finalAmount)
	list[idx] = updated

	if err := s.store.SaveDisputes(ctx, list); err != nil {
		return nil, "", fmt.Errorf("save disputes: %w", err)
	}

	s.logger.Info("dispute edited",
		zap.String("dispute_id", id),
		zap.String("merchant", finalMerchant),
	)

	msg := fmt.Sprintf("✏️ Reclamação %s atualizada.\n\n%s", id, newText)
	return &updated, msg, nil
}

// preserveContextUpdate gera o novo texto da reclamação a partir do
// original e da correção, segundo a intenção detectada. Os merges são
// determinísticos; só a detecção de intenção e a reescrita contextual
// consultam o classificador, ambas com fallback.
func (s *DisputeService) preserveContextUpdate(ctx context.Context, original, correction string) string {
	intent := s.analyzeCorrectionIntent(ctx, original, correction)

	switch intent {
	case domain.IntentAddValue:
		if v := s.extract.ExtractAmountCents(correction); v != nil {
			newAmount := formatReais(*v)
			if s.extract.HasAmount(original) {
				return amountValuePattern.ReplaceAllString(original, newAmount)
			}
			return original + " - Valor: " + newAmount
		}

	case domain.IntentUpdateValue:
		if v := s.extract.ExtractAmountCents(correction); v != nil {
			updated := amountValuePattern.ReplaceAllString(original, formatReais(*v))
			if updated != original {
				return updated
			}
		}

	case domain.IntentUpdateMerchant:
		if newMerchant := s.extract.ExtractMerchant(correction); newMerchant != "" {
			if updated := s.replaceMerchantInText(original, newMerchant); updated != original {
				return updated
			}
		}

	case domain.IntentComplementInfo:
		if complement := s.extractComplement(ctx, correction); complement != "" {
			return original + " - " + complement
		}
	}

	return s.contextualRewrite(ctx, original, correction)
}

// analyzeCorrectionIntent classifica a intenção da correção. Falha do
// classificador cai em FULL_REPLACE, o merge mais conservador.
func (s *DisputeService) analyzeCorrectionIntent(ctx context.Context, original, correction string) domain.CorrectionIntent {
	raw, err := s.classifier.Classify(ctx, correctionIntentPrompt(original, correction))
	if err != nil {
		s.logger.Warn("correction intent classification failed", zap.Error(err))
		s.metrics.IncrClassifierFallback("correction_intent")
		return domain.IntentFullReplace
	}
	return domain.ParseCorrectionIntent(strings.TrimSpace(raw))
}

func (s *DisputeService) contextualRewrite(ctx context.Context, original, correction string) string {
	raw, err := s.classifier.Classify(ctx, contextualRewritePrompt(original, correction))
	if err != nil {
		s.logger.Warn("contextual rewrite failed, keeping correction text", zap.Error(err))
		s.metrics.IncrClassifierFallback("contextual_rewrite")
		return correction
	}
	return strings.Trim(strings.TrimSpace(raw), `"`)
}

func (s *DisputeService) extractComplement(ctx context.Context, correction string) string {
	raw, err := s.classifier.Classify(ctx, complementExtractionPrompt(correction))
	if err != nil {
		s.logger.Warn("complement extraction failed, keeping correction text", zap.Error(err))
		s.metrics.IncrClassifierFallback("complement")
		return correction
	}
	return strings.Trim(strings.TrimSpace(raw), `"`)
}

// replaceMerchantInText troca, no texto original, o estabelecimento
// conhecido pelo novo (case-insensitive).
func (s *DisputeService) replaceMerchantInText(original, newMerchant string) string {
	lowered := strings.ToLower(original)
	for _, known := range s.extract.KnownMerchants {
		if !strings.Contains(lowered, strings.ToLower(known)) {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(known))
		return re.ReplaceAllString(original, newMerchant)
	}
	return original
}

// preserveKnownMerchant mantém o estabelecimento original quando ele é um
// conhecido do registro: correções que só mexem no valor nunca apagam um
// merchant já resolvido.
func (s *DisputeService) preserveKnownMerchant(original, extracted string) string {
	if original != "" {
		loweredOriginal := strings.ToLower(original)
		for _, known := range s.extract.KnownMerchants {
			if strings.Contains(loweredOriginal, strings.ToLower(known)) {
				return original
			}
		}
	}
	if extracted != "" {
		return extracted
	}
	return original
}

// updateActionWithNewValues regenera o resumo de ação com o valor e o
// estabelecimento finais, substituindo os trechos antigos.
func updateActionWithNewValues(originalAction, merchant string, amountCents *int) string {
	if amountCents == nil {
		return originalAction
	}
	newAmount := formatReais(*amountCents)

	updated := amountValuePattern.ReplaceAllString(originalAction, newAmount)
	if merchant != "" && !strings.EqualFold(merchant, "desconhecido") {
		updated = actionValuePattern.ReplaceAllString(updated, merchant+" - "+newAmount)
	}
	return updated
}

// ============================================================
// Consulta e remoção
// ============================================================

// DeleteDispute remove uma reclamação pelo id.
func (s *DisputeService) DeleteDispute(ctx context.Context, id string) (string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.DeleteDispute")
	defer span.End()

	list, err := s.store.LoadDisputes(ctx)
	if err != nil {
		return "", fmt.Errorf("load disputes: %w", err)
	}
	idx := findDispute(list, id)
	if idx < 0 {
		return msgDisputeNotFound, &domain.ErrNotFound{Resource: "dispute", ID: id}
	}

	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	if err := s.store.SaveDisputes(ctx, list); err != nil {
		return "", fmt.Errorf("save disputes: %w", err)
	}

	s.logger.Info("dispute deleted", zap.String("dispute_id", id))
	return fmt.Sprintf("🗑️ Reclamação removida: %s", removed.CustomerText), nil
}

// ShowDispute devolve os detalhes formatados de uma reclamação.
func (s *DisputeService) ShowDispute(ctx context.Context, id string) (*domain.DisputeRecord, string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.ShowDispute")
	defer span.End()

	list, err := s.store.LoadDisputes(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load disputes: %w", err)
	}
	idx := findDispute(list, id)
	if idx < 0 {
		return nil, msgDisputeNotFound, &domain.ErrNotFound{Resource: "dispute", ID: id}
	}

	item := list[idx]
	amount := "Não identificado"
	if item.AmountCents != nil {
		amount = formatReais(*item.AmountCents)
	}
	msg := fmt.Sprintf("ID: %s\nStatus: %s\nMerchant: %s\nValor: %s\nCriada em: %s\nAção: %s\nTexto: %s",
		item.ID, item.Status, item.Merchant, amount,
		item.CreatedAt.Format("2006-01-02 15:04:05Z"),
		item.ActionTaken, item.CustomerText)
	return &item, msg, nil
}

// ListDisputes devolve todas as reclamações em ordem de inserção. Lista
// vazia devolve uma mensagem fixa, nunca um payload vazio.
func (s *DisputeService) ListDisputes(ctx context.Context) ([]domain.DisputeRecord, string, error) {
	ctx, span := tracer.Start(ctx, "DisputeService.ListDisputes")
	defer span.End()

	list, err := s.store.LoadDisputes(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load disputes: %w", err)
	}
	if len(list) == 0 {
		return nil, "📭 Nenhuma reclamação registrada.", nil
	}

	lines := make([]string, 0, len(list))
	for _, d := range list {
		lines = append(lines, fmt.Sprintf("%s | [%s] %s → %s (em %s)",
			d.ID, d.Status, d.CustomerText, d.ActionTaken,
			d.CreatedAt.Format("2006-01-02 15:04:05Z")))
	}
	return list, strings.Join(lines, "\n"), nil
}

func findDispute(list []domain.DisputeRecord, id string) int {
	for i, d := range list {
		if d.ID == id {
			return i
		}
	}
	return -1
}
