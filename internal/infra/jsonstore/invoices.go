package jsonstore

import (
	"context"

	"github.com/IgorSimim/zoopia-go/internal/domain"
)

const invoicesKey = "boletos"

// invoiceDocument é o formato do arquivo data/boletos.json: um único
// documento com as empresas emissoras e os boletos.
type invoiceDocument struct {
	Companies []domain.Company `json:"empresas"`
	Invoices  []domain.Invoice `json:"boletos"`
}

// InvoiceStore implementa port.InvoiceStore sobre o arquivo
// data/boletos.json. Somente leitura.
type InvoiceStore struct {
	store *Store
}

// NewInvoiceStore cria o adaptador de boletos.
func NewInvoiceStore(store *Store) *InvoiceStore {
	return &InvoiceStore{store: store}
}

func (i *InvoiceStore) load(ctx context.Context) (invoiceDocument, error) {
	var doc invoiceDocument
	if err := ctx.Err(); err != nil {
		return doc, err
	}
	if _, err := i.store.LoadDocument(invoicesKey, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func (i *InvoiceStore) LoadCompanies(ctx context.Context) ([]domain.Company, error) {
	doc, err := i.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Companies, nil
}

func (i *InvoiceStore) LoadInvoices(ctx context.Context) ([]domain.Invoice, error) {
	doc, err := i.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Invoices, nil
}
