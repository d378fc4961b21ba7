package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/infra/session"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockDisputeManager struct {
	added        []string
	addedErr     error
	listMsg      string
	deleteCalled string
	editedID     string
	editedText   string
	listCalls    int
}

func (m *mockDisputeManager) AddDispute(_ context.Context, text string) (*domain.DisputeRecord, string, error) {
	if m.addedErr != nil {
		return nil, "", m.addedErr
	}
	m.added = append(m.added, text)
	return &domain.DisputeRecord{ID: "abc12345"}, "📩 Reclamação registrada (id: abc12345).", nil
}

func (m *mockDisputeManager) AddDisputeWithMerchant(_ context.Context, text, merchant string) (*domain.DisputeRecord, string, error) {
	m.added = append(m.added, text+"|"+merchant)
	return &domain.DisputeRecord{ID: "abc12345"}, "📩 Reclamação registrada (id: abc12345).", nil
}

func (m *mockDisputeManager) EditDispute(_ context.Context, id, correction string) (*domain.DisputeRecord, string, error) {
	m.editedID = id
	m.editedText = correction
	return &domain.DisputeRecord{ID: id}, "✏️ Reclamação " + id + " atualizada.", nil
}

func (m *mockDisputeManager) DeleteDispute(_ context.Context, id string) (string, error) {
	m.deleteCalled = id
	return "🗑️ Reclamação removida: teste", nil
}

func (m *mockDisputeManager) ShowDispute(_ context.Context, id string) (*domain.DisputeRecord, string, error) {
	return nil, "❌ Não encontrei essa reclamação.", &domain.ErrNotFound{Resource: "dispute", ID: id}
}

func (m *mockDisputeManager) ListDisputes(_ context.Context) ([]domain.DisputeRecord, string, error) {
	m.listCalls++
	msg := m.listMsg
	if msg == "" {
		msg = "📭 Nenhuma reclamação registrada."
	}
	return nil, msg, nil
}

type mockInvoiceSearcher struct {
	cpfResult  string
	cpfQueried string
}

func (m *mockInvoiceSearcher) SearchByCPF(_ context.Context, cpf string) (string, error) {
	m.cpfQueried = cpf
	if m.cpfResult == "" {
		return "❌ Nenhum boleto encontrado para o CPF informado.", nil
	}
	return m.cpfResult, nil
}

func (m *mockInvoiceSearcher) SearchByName(_ context.Context, name string) (string, error) {
	return "✅ Encontramos 1 boleto(s) para '" + name + "':", nil
}

func (m *mockInvoiceSearcher) ListCompanies(_ context.Context) (string, error) {
	return "Empresas cadastradas:\n\n1. Zoop (Zoop Tecnologia LTDA)", nil
}

type convFixture struct {
	svc      *service.ConversationService
	sessions *session.Store
	disputes *mockDisputeManager
	lookup   *mockInvoiceSearcher
}

func newConvFixture(classifier *stubClassifier) *convFixture {
	sessions := session.New(30 * time.Minute)
	disputes := &mockDisputeManager{}
	lookup := &mockInvoiceSearcher{}
	svc := service.NewConversationService(
		sessions,
		disputes,
		lookup,
		classifier,
		testExtractors,
		time.Second,
		observability.NewMetrics(),
		zap.NewNop(),
	)
	return &convFixture{svc: svc, sessions: sessions, disputes: disputes, lookup: lookup}
}

// --- Tests ---

func TestHandleTurn_EmptyCommand(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "   ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "❌ Comando vazio." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleTurn_FarewellClearsSession(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	// Semeia estado prévio.
	state := domain.NewConversationState()
	state.Transition(domain.StepAwaitingCPF, "cpf")
	f.sessions.Save("s1", state)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "sair")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.IsExit {
		t.Error("expected IsExit")
	}
	if !strings.Contains(resp.Message, "👋 Encerrando ZoopIA") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if _, ok := f.sessions.Load("s1"); ok {
		t.Error("session state should be cleared on farewell")
	}
}

func TestHandleTurn_ZoopTriggerAsksConfirmation(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "a zoop me cobrou 50 reais indevidos")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.RequiresConfirmation {
		t.Error("expected RequiresConfirmation")
	}
	if resp.ConfirmationType != "zoop_intent" {
		t.Errorf("confirmation type = %q, want zoop_intent", resp.ConfirmationType)
	}

	state, ok := f.sessions.Load("s1")
	if !ok {
		t.Fatal("expected session state to be persisted")
	}
	if state.CurrentStep != domain.StepAwaitingConfirmation {
		t.Errorf("step = %q, want %q", state.CurrentStep, domain.StepAwaitingConfirmation)
	}
	if state.PreviousMessage != "a zoop me cobrou 50 reais indevidos" {
		t.Errorf("previous message = %q", state.PreviousMessage)
	}
}

func TestHandleTurn_ConfirmationRetriesThenDemandsLiteral(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	if _, err := f.svc.HandleTurn(context.Background(), "s1", "a zoop me cobrou 50 reais indevidos"); err != nil {
		t.Fatalf("trigger turn: %v", err)
	}

	// Primeira resposta ambígua: re-pergunta.
	resp, err := f.svc.HandleTurn(context.Background(), "s1", "hmm talvez")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.RequiresConfirmation {
		t.Error("expected RequiresConfirmation on ambiguous reply")
	}
	if !strings.Contains(resp.Message, "Não consegui identificar claramente") {
		t.Errorf("unexpected retry message: %q", resp.Message)
	}

	// Segunda resposta ambígua: exige a palavra literal.
	resp, err = f.svc.HandleTurn(context.Background(), "s1", "não faço ideia")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(resp.Message, "Responda exatamente com a palavra CONSULTAR ou RECLAMAR") {
		t.Errorf("unexpected literal message: %q", resp.Message)
	}

	state, _ := f.sessions.Load("s1")
	if state.CurrentStep != domain.StepAwaitingConfirmation {
		t.Errorf("ambiguous replies must not advance the step, got %q", state.CurrentStep)
	}
}

func TestHandleTurn_ConfirmConsultAsksCPF(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	if _, err := f.svc.HandleTurn(context.Background(), "s1", "tenho uma dúvida sobre a zoop"); err != nil {
		t.Fatalf("trigger turn: %v", err)
	}

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "consultar")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.RequiresCPFInput {
		t.Error("expected RequiresCPFInput")
	}

	state, _ := f.sessions.Load("s1")
	if state.CurrentStep != domain.StepAwaitingCPF {
		t.Errorf("step = %q, want %q", state.CurrentStep, domain.StepAwaitingCPF)
	}
}

func TestHandleTurn_ConfirmComplaintUsesPreviousMessage(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	if _, err := f.svc.HandleTurn(context.Background(), "s1", "a zoop me cobrou 50 reais indevidos"); err != nil {
		t.Fatalf("trigger turn: %v", err)
	}

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "quero reclamar")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.disputes.added) != 1 || f.disputes.added[0] != "a zoop me cobrou 50 reais indevidos" {
		t.Errorf("dispute should be created from the previous message, got %v", f.disputes.added)
	}
	if !strings.Contains(resp.Message, "💡 Dica: Use 'listar reclamações'") {
		t.Errorf("expected dispute hint in %q", resp.Message)
	}

	state, _ := f.sessions.Load("s1")
	if state.CurrentStep != domain.StepNormal {
		t.Errorf("step = %q, want %q", state.CurrentStep, domain.StepNormal)
	}
}

func TestHandleTurn_InvalidCPFReasks(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	state := domain.NewConversationState()
	state.Transition(domain.StepAwaitingCPF, "cpf")
	f.sessions.Save("s1", state)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "12345")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.RequiresCPFInput {
		t.Error("expected RequiresCPFInput on invalid CPF")
	}
	if !strings.Contains(resp.Message, "❌ CPF inválido") {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	after, _ := f.sessions.Load("s1")
	if after.CurrentStep != domain.StepAwaitingCPF {
		t.Errorf("invalid CPF must not advance the step, got %q", after.CurrentStep)
	}
}

func TestHandleTurn_ValidCPFRunsLookup(t *testing.T) {
	f := newConvFixture(&stubClassifier{})
	f.lookup.cpfResult = "✅ Encontramos 2 boleto(s) para 'CPF informado':"

	state := domain.NewConversationState()
	state.Transition(domain.StepAwaitingCPF, "cpf")
	f.sessions.Save("s1", state)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "123.456.789-01")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.lookup.cpfQueried != "12345678901" {
		t.Errorf("lookup received %q, want normalized digits", f.lookup.cpfQueried)
	}
	if !strings.Contains(resp.Message, "🔍 Consultando boletos para o CPF: 123.456.789-01") {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	after, _ := f.sessions.Load("s1")
	if after.CurrentStep != domain.StepQueryDone {
		t.Errorf("step = %q, want %q", after.CurrentStep, domain.StepQueryDone)
	}
}

func TestHandleTurn_DirectListCommands(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "listar reclamações")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(resp.Message, "📋 ") {
		t.Errorf("expected list prefix, got %q", resp.Message)
	}

	resp, err = f.svc.HandleTurn(context.Background(), "s1", "listar empresas")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(resp.Message, "🏢 ") {
		t.Errorf("expected companies prefix, got %q", resp.Message)
	}
}

func TestHandleTurn_KeywordFallbackWhenClassifierFails(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) { return "", errors.New("classifier down") },
	}
	f := newConvFixture(classifier)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "fraude de R$ 20,00 da Netflix")
	if err != nil {
		t.Fatalf("classifier failure must not surface, got %v", err)
	}
	if len(f.disputes.added) != 1 {
		t.Fatalf("expected dispute via keyword fallback, got %v", f.disputes.added)
	}
	if !strings.Contains(resp.Message, "📩 Reclamação registrada") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleTurn_MerchantRequiredFlow(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) { return "", errors.New("classifier down") },
	}
	f := newConvFixture(classifier)
	f.disputes.addedErr = &domain.ErrMerchantRequired{OriginalText: "fraude de R$ 20,00 na minha conta"}

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "fraude de R$ 20,00 na minha conta")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(resp.Message, "🏪 Não consegui identificar o estabelecimento") {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	state, _ := f.sessions.Load("s1")
	if state.CurrentStep != domain.StepAwaitingMerchant {
		t.Errorf("step = %q, want %q", state.CurrentStep, domain.StepAwaitingMerchant)
	}

	// A resposta seguinte traz o estabelecimento e cria a disputa.
	f.disputes.addedErr = nil
	if _, err := f.svc.HandleTurn(context.Background(), "s1", "Padaria Central"); err != nil {
		t.Fatalf("merchant reply: %v", err)
	}
	if len(f.disputes.added) != 1 || !strings.HasSuffix(f.disputes.added[0], "|Padaria Central") {
		t.Errorf("expected AddDisputeWithMerchant call, got %v", f.disputes.added)
	}

	after, _ := f.sessions.Load("s1")
	if after.CurrentStep != domain.StepNormal {
		t.Errorf("step = %q, want %q", after.CurrentStep, domain.StepNormal)
	}
}

func TestHandleTurn_RoutedDeleteDoesNotCreateDispute(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) {
			return "```json\n{\"plugin\": \"Disputes\", \"function\": \"DeleteDispute\", \"parameters\": {\"id\": \"abc12345\"}}\n```", nil
		},
	}
	f := newConvFixture(classifier)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "pode apagar a reclamação abc12345 que abri ontem")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.disputes.deleteCalled != "abc12345" {
		t.Errorf("delete called with %q, want abc12345", f.disputes.deleteCalled)
	}
	if len(f.disputes.added) != 0 {
		t.Errorf("delete phrasing must not create a dispute, got %v", f.disputes.added)
	}
	if !strings.Contains(resp.Message, "🗑️ Reclamação removida") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleTurn_RoutedShowWithoutIDAsksForIt(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) {
			return `{"plugin": "Disputes", "function": "ShowDispute"}`, nil
		},
	}
	f := newConvFixture(classifier)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "queria ver os detalhes daquela reclamação")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(resp.Message, "mostrar <id>") {
		t.Errorf("expected id prompt, got %q", resp.Message)
	}
	if len(f.disputes.added) != 0 {
		t.Errorf("show phrasing must not create a dispute, got %v", f.disputes.added)
	}
}

func TestHandleTurn_RoutedListDisputes(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) {
			return `{"plugin": "Disputes", "function": "ListDisputes"}`, nil
		},
	}
	f := newConvFixture(classifier)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "quais reclamações eu já abri?")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.disputes.listCalls != 1 {
		t.Errorf("list calls = %d, want 1", f.disputes.listCalls)
	}
	if len(f.disputes.added) != 0 {
		t.Errorf("list phrasing must not create a dispute, got %v", f.disputes.added)
	}
	if !strings.HasPrefix(resp.Message, "📋 ") {
		t.Errorf("expected list prefix, got %q", resp.Message)
	}
}

func TestHandleTurn_EditCommandIgnoresCase(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "Editar ABC12345 valor de R$ 20,00")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.disputes.editedID != "abc12345" {
		t.Errorf("edit id = %q, want abc12345", f.disputes.editedID)
	}
	if f.disputes.editedText != "valor de R$ 20,00" {
		t.Errorf("edit text = %q, want original casing preserved", f.disputes.editedText)
	}
	if !strings.Contains(resp.Message, "✏️ Reclamação abc12345 atualizada.") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleTurn_NotUnderstood(t *testing.T) {
	classifier := &stubClassifier{
		respond: func(string) (string, error) {
			return `{"plugin": null, "function": null}`, nil
		},
	}
	f := newConvFixture(classifier)

	resp, err := f.svc.HandleTurn(context.Background(), "s1", "bom dia")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(resp.Message, "🤔 Não entendi") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleConfirmation_InvalidInput(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleConfirmation(context.Background(), "s1", "", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "❌ Confirmação inválida." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleCPF_Empty(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	resp, err := f.svc.HandleCPF(context.Background(), "s1", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Message != "❌ CPF não informado." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestHandleTurn_QueryDoneChainsComplaint(t *testing.T) {
	f := newConvFixture(&stubClassifier{})

	state := domain.NewConversationState()
	state.PreviousMessage = "Consulta de boletos para o CPF 12345678901"
	state.Transition(domain.StepQueryDone, "")
	f.sessions.Save("s1", state)

	_, err := f.svc.HandleTurn(context.Background(), "s1", "quero reclamar dessa cobrança de 30 reais")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(f.disputes.added) != 1 {
		t.Fatalf("expected chained dispute, got %v", f.disputes.added)
	}
	want := "Consulta de boletos para o CPF 12345678901 - quero reclamar dessa cobrança de 30 reais"
	if f.disputes.added[0] != want {
		t.Errorf("dispute text = %q, want %q", f.disputes.added[0], want)
	}
}
