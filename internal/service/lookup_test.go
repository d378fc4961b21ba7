package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/IgorSimim/zoopia-go/internal/domain"
	"github.com/IgorSimim/zoopia-go/internal/infra/cache"
	"github.com/IgorSimim/zoopia-go/internal/infra/observability"
	"github.com/IgorSimim/zoopia-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type memInvoiceStore struct {
	companies []domain.Company
	invoices  []domain.Invoice
	loads     int
}

func (m *memInvoiceStore) LoadCompanies(_ context.Context) ([]domain.Company, error) {
	m.loads++
	return m.companies, nil
}

func (m *memInvoiceStore) LoadInvoices(_ context.Context) ([]domain.Invoice, error) {
	return m.invoices, nil
}

func testInvoiceData() ([]domain.Company, []domain.Invoice) {
	companies := []domain.Company{
		{ID: "emp-1", TradeName: "Zoop Pagamentos", LegalName: "Zoop Tecnologia LTDA", ContactEmail: "contato@zoop.com.br", Phone: "(11) 1111-1111"},
		{ID: "emp-2", TradeName: "Academia Fit", LegalName: "Fit Center LTDA", ContactEmail: "oi@fit.com.br", Phone: "(11) 2222-2222"},
	}
	invoices := []domain.Invoice{
		{InvoiceID: "BOL-001", IssuerID: "emp-1", Amount: 39.90, DueDate: "2025-10-10", PayableTo: "João da Silva", PayableDoc: "123.456.789-01", Status: "pago", Description: "Assinatura Netflix via plataforma"},
		{InvoiceID: "BOL-002", IssuerID: "emp-2", Amount: 120.00, DueDate: "2025-10-15", PayableTo: "Maria José Oliveira", PayableDoc: "987.654.321-00", Status: "aberto"},
	}
	return companies, invoices
}

func newLookupFixture() (*service.LookupService, *memInvoiceStore) {
	companies, invoices := testInvoiceData()
	store := &memInvoiceStore{companies: companies, invoices: invoices}
	svc := service.NewLookupService(store, cache.New[service.InvoiceData](5*time.Minute), observability.NewMetrics(), zap.NewNop())
	return svc, store
}

// --- Tests ---

func TestSearchByCPF_MatchesDigitsOnly(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.SearchByCPF(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "✅ Encontramos 1 boleto(s)") {
		t.Errorf("unexpected message: %q", msg)
	}
	if !strings.Contains(msg, "BOL-001") {
		t.Errorf("expected BOL-001 in %q", msg)
	}
}

func TestSearchByCPF_NoMatch(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.SearchByCPF(context.Background(), "000.000.000-00")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msg != "❌ Nenhum boleto encontrado para o CPF informado." {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestSearchByCPF_ZoopIntermediaryHint(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.SearchByCPF(context.Background(), "123.456.789-01")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "A Zoop é a plataforma de pagamentos") {
		t.Errorf("expected intermediary hint in %q", msg)
	}
}

func TestSearchByName_IgnoresAccents(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.SearchByName(context.Background(), "maria jose oliveira")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "BOL-002") {
		t.Errorf("expected BOL-002 in %q", msg)
	}
}

func TestSearchByName_FlexibleMatch(t *testing.T) {
	svc, _ := newLookupFixture()

	// Três partes buscadas, duas presentes: o fallback flexível resolve.
	msg, err := svc.SearchByName(context.Background(), "maria fernanda oliveira")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "BOL-002") {
		t.Errorf("expected flexible match in %q", msg)
	}
}

func TestSearchByName_NoMatch(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.SearchByName(context.Background(), "Carlos Pereira")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(msg, "❌ Nenhum boleto encontrado para 'Carlos Pereira'") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestListCompanies(t *testing.T) {
	svc, _ := newLookupFixture()

	msg, err := svc.ListCompanies(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(msg, "1. Zoop Pagamentos (Zoop Tecnologia LTDA)") {
		t.Errorf("unexpected listing: %q", msg)
	}
	if !strings.Contains(msg, "2. Academia Fit") {
		t.Errorf("unexpected listing: %q", msg)
	}
}

func TestLookup_UsesCache(t *testing.T) {
	svc, store := newLookupFixture()

	if _, err := svc.SearchByCPF(context.Background(), "12345678901"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if _, err := svc.SearchByCPF(context.Background(), "12345678901"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if store.loads != 1 {
		t.Errorf("expected a single store load (cache hit on the second call), got %d", store.loads)
	}
}
