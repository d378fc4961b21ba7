package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type memDisputeStore struct {
	disputes []domain.DisputeRecord
	loadErr  error
	saveErr  error
}

func (m *memDisputeStore) LoadDisputes(_ context.Context) ([]domain.DisputeRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.DisputeRecord(nil), m.disputes...), nil
}

func (m *memDisputeStore) SaveDisputes(_ context.Context, disputes []domain.DisputeRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.disputes = disputes
	return nil
}

type stubClassifier struct {
	respond func(prompt string) (string, error)
	calls   int
}

func (s *stubClassifier) Classify(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.respond == nil {
		return "", errors.New("classifier unavailable")
	}
	return s.respond(prompt)
}

func newDisputeService(t *testing.T, store *memDisputeStore, classifier *stubClassifier) *service.DisputeService {
	t.Helper()
	svc, err := service.NewDisputeService(store, classifier, testExtractors, observability.NewMetrics(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewDisputeService: %v", err)
	}
	return svc
}

// --- Tests ---

func TestAddDispute_KnownMerchantAutoRefund(t *testing.T) {
	store := &memDisputeStore{}
	classifier := &stubClassifier{}
	svc := newDisputeService(t, store, classifier)

	record, msg, err := svc.AddDispute(context.Background(), "cobrança indevida da Netflix de R$ 39,90")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if record.Merchant != "netflix" {
		t.Errorf("merchant = %q, want netflix", record.Merchant)
	}
	if record.AmountCents == nil || *record.AmountCents != 3990 {
		t.Errorf("amount = %v, want 3990", record.AmountCents)
	}
	if record.Status != domain.StatusRefundApproved {
		t.Errorf("status = %q, want %q", record.Status, domain.StatusRefundApproved)
	}
	if len(record.ID) != 8 {
		t.Errorf("expected 8-char id, got %q", record.ID)
	}
	if !strings.Contains(msg, "📩 Reclamação registrada (id: "+record.ID+")") {
		t.Errorf("unexpected message: %q", msg)
	}
	if classifier.calls != 0 {
		t.Errorf("classifier should not be called when the merchant registry resolves, got %d calls", classifier.calls)
	}
	if len(store.disputes) != 1 {
		t.Fatalf("expected 1 persisted dispute, got %d", len(store.disputes))
	}
}

func TestAddDispute_ClassifierResolvesMerchant(t *testing.T) {
	store := &memDisputeStore{}
	classifier := &stubClassifier{
		respond: func(string) (string, error) {
			return "```json\n{\"merchant\": \"Padaria Central\", \"amount_cents\": 12000, \"isDispute\": true, \"confidence\": 0.85}\n```", nil
		},
	}
	svc := newDisputeService(t, store, classifier)

	record, _, err := svc.AddDispute(context.Background(), "não reconheço uma cobrança da padaria do centro")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.Merchant != "Padaria Central" {
		t.Errorf("merchant = %q, want 'Padaria Central'", record.Merchant)
	}
	if record.AmountCents == nil || *record.AmountCents != 12000 {
		t.Errorf("amount = %v, want 12000", record.AmountCents)
	}
	// R$ 120,00 fica acima do teto de reembolso automático.
	if record.Status != domain.StatusPending {
		t.Errorf("status = %q, want %q", record.Status, domain.StatusPending)
	}
}

func TestAddDispute_MerchantRequired(t *testing.T) {
	store := &memDisputeStore{}
	classifier := &stubClassifier{} // sempre falha → fallback conservador sem merchant
	svc := newDisputeService(t, store, classifier)

	text := "não reconheço uma cobrança de R$ 90,00"
	_, _, err := svc.AddDispute(context.Background(), text)

	var needsMerchant *domain.ErrMerchantRequired
	if !errors.As(err, &needsMerchant) {
		t.Fatalf("expected ErrMerchantRequired, got %v", err)
	}
	if needsMerchant.OriginalText != text {
		t.Errorf("original text = %q, want %q", needsMerchant.OriginalText, text)
	}
	if len(store.disputes) != 0 {
		t.Errorf("no dispute should be persisted, got %d", len(store.disputes))
	}
}

func TestAddDispute_EmptyText(t *testing.T) {
	svc := newDisputeService(t, &memDisputeStore{}, &stubClassifier{})

	_, _, err := svc.AddDispute(context.Background(), "   ")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAddDisputeWithMerchant(t *testing.T) {
	store := &memDisputeStore{}
	svc := newDisputeService(t, store, &stubClassifier{})

	record, _, err := svc.AddDisputeWithMerchant(context.Background(), "cobrança de R$ 30,00 que não reconheço", "Padaria Central")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.Merchant != "Padaria Central" {
		t.Errorf("merchant = %q, want 'Padaria Central'", record.Merchant)
	}
	// Merchant fornecido pelo usuário conta como confiança alta: R$ 30,00
	// entra no reembolso automático.
	if record.Status != domain.StatusRefundApproved {
		t.Errorf("status = %q, want %q", record.Status, domain.StatusRefundApproved)
	}
}

func TestAddDisputeWithMerchant_Blocked(t *testing.T) {
	svc := newDisputeService(t, &memDisputeStore{}, &stubClassifier{})

	_, _, err := svc.AddDisputeWithMerchant(context.Background(), "cobrança estranha", "loja merda")
	var blocked *domain.ErrContentPolicy
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ErrContentPolicy, got %v", err)
	}
}

func TestEditDispute_AmountOnlyKeepsKnownMerchant(t *testing.T) {
	amount := 3990
	store := &memDisputeStore{disputes: []domain.DisputeRecord{{
		ID:           "abc12345",
		CustomerText: "cobrança indevida da Netflix de R$ 39,90",
		Merchant:     "netflix",
		AmountCents:  &amount,
		Status:       domain.StatusRefundApproved,
		ActionTaken:  "✅ Reembolso automático para netflix - R$ 39.90",
	}}}
	classifier := &stubClassifier{
		respond: func(string) (string, error) { return "UPDATE_VALUE", nil },
	}
	svc := newDisputeService(t, store, classifier)

	record, msg, err := svc.EditDispute(context.Background(), "abc12345", "na verdade o valor foi R$ 45,00")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if record.Merchant != "netflix" {
		t.Errorf("known merchant must survive an amount-only edit, got %q", record.Merchant)
	}
	if record.AmountCents == nil || *record.AmountCents != 4500 {
		t.Errorf("amount = %v, want 4500", record.AmountCents)
	}
	if record.Status != domain.StatusUpdated {
		t.Errorf("status = %q, want %q", record.Status, domain.StatusUpdated)
	}
	if !strings.Contains(record.ActionTaken, "R$ 45.00") {
		t.Errorf("action summary not regenerated: %q", record.ActionTaken)
	}
	if !strings.Contains(msg, "✏️ Reclamação abc12345 atualizada.") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestEditDispute_NotFound(t *testing.T) {
	svc := newDisputeService(t, &memDisputeStore{}, &stubClassifier{})

	_, msg, err := svc.EditDispute(context.Background(), "deadbeef", "qualquer coisa")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if msg != "❌ Não encontrei essa reclamação." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestDeleteDispute(t *testing.T) {
	store := &memDisputeStore{disputes: []domain.DisputeRecord{
		{ID: "aaaa1111", CustomerText: "cobrança da Netflix"},
		{ID: "bbbb2222", CustomerText: "cobrança da Amazon"},
	}}
	svc := newDisputeService(t, store, &stubClassifier{})

	msg, err := svc.DeleteDispute(context.Background(), "aaaa1111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "🗑️ Reclamação removida: cobrança da Netflix") {
		t.Errorf("unexpected message: %q", msg)
	}
	if len(store.disputes) != 1 || store.disputes[0].ID != "bbbb2222" {
		t.Errorf("unexpected remaining disputes: %+v", store.disputes)
	}
}

func TestDeleteDispute_NotFound(t *testing.T) {
	store := &memDisputeStore{disputes: []domain.DisputeRecord{{ID: "aaaa1111"}}}
	svc := newDisputeService(t, store, &stubClassifier{})

	_, err := svc.DeleteDispute(context.Background(), "zzzz9999")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.disputes) != 1 {
		t.Errorf("list size must not change, got %d", len(store.disputes))
	}
}

func TestShowDispute_NoAmount(t *testing.T) {
	store := &memDisputeStore{disputes: []domain.DisputeRecord{{
		ID:           "aaaa1111",
		CustomerText: "cobrança da Netflix",
		Merchant:     "netflix",
		Status:       domain.StatusPending,
	}}}
	svc := newDisputeService(t, store, &stubClassifier{})

	_, msg, err := svc.ShowDispute(context.Background(), "aaaa1111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "Valor: Não identificado") {
		t.Errorf("missing amount placeholder in %q", msg)
	}
}

func TestListDisputes_Empty(t *testing.T) {
	svc := newDisputeService(t, &memDisputeStore{}, &stubClassifier{})

	list, msg, err := svc.ListDisputes(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if list != nil {
		t.Errorf("expected nil list, got %v", list)
	}
	if msg != "📭 Nenhuma reclamação registrada." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestListDisputes(t *testing.T) {
	store := &memDisputeStore{disputes: []domain.DisputeRecord{
		{ID: "aaaa1111", CustomerText: "cobrança da Netflix", Status: domain.StatusPending, ActionTaken: "📋 Análise manual - netflix"},
	}}
	svc := newDisputeService(t, store, &stubClassifier{})

	list, msg, err := svc.ListDisputes(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 dispute, got %d", len(list))
	}
	if !strings.Contains(msg, "aaaa1111 | [Pendente] cobrança da Netflix") {
		t.Errorf("unexpected listing: %q", msg)
	}
}
