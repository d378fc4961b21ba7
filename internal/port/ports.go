// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/IgorSimim/zoopia-go/internal/domain"
)

// Classifier invokes the language model with a prompt and returns the raw
// completion text. Implementations own their own resilience (retry, breaker,
// bulkhead); callers own the deadline via ctx.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// DisputeStore persists the dispute list as a whole (load everything,
// save everything). Concurrent saves are last-write-wins.
type DisputeStore interface {
	LoadDisputes(ctx context.Context) ([]domain.DisputeRecord, error)
	SaveDisputes(ctx context.Context, disputes []domain.DisputeRecord) error
}

// InvoiceStore loads the registered companies and issued boletos used by
// the lookup flow. Read-only: the assistant never writes to this data.
type InvoiceStore interface {
	LoadCompanies(ctx context.Context) ([]domain.Company, error)
	LoadInvoices(ctx context.Context) ([]domain.Invoice, error)
}

// SessionStore holds per-session conversation state with a TTL. Lock
// returns a release func and guarantees a single writer per session,
// so two concurrent turns for the same session serialize.
type SessionStore interface {
	Load(sessionID string) (*domain.ConversationState, bool)
	Save(sessionID string, state *domain.ConversationState)
	Clear(sessionID string)
	Lock(sessionID string) (release func())
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// DisputeManager is the dispute repository surface consumed by the
// conversation layer and the REST handlers.
type DisputeManager interface {
	AddDispute(ctx context.Context, text string) (*domain.DisputeRecord, string, error)
	AddDisputeWithMerchant(ctx context.Context, text, merchant string) (*domain.DisputeRecord, string, error)
	EditDispute(ctx context.Context, id, correction string) (*domain.DisputeRecord, string, error)
	DeleteDispute(ctx context.Context, id string) (string, error)
	ShowDispute(ctx context.Context, id string) (*domain.DisputeRecord, string, error)
	ListDisputes(ctx context.Context) ([]domain.DisputeRecord, string, error)
}

// InvoiceSearcher is the boleto lookup surface consumed by the
// conversation layer.
type InvoiceSearcher interface {
	SearchByCPF(ctx context.Context, cpf string) (string, error)
	SearchByName(ctx context.Context, name string) (string, error)
	ListCompanies(ctx context.Context) (string, error)
}
