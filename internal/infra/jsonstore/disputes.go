package jsonstore

import (
	"context"

	"github.com/IgorSimim/zoopia-go/internal/domain"
)

const disputesKey = "disputes"

// DisputeStore implementa port.DisputeStore sobre o arquivo
// data/disputes.json.
type DisputeStore struct {
	store *Store
}

// NewDisputeStore cria o adaptador de disputas.
func NewDisputeStore(store *Store) *DisputeStore {
	return &DisputeStore{store: store}
}

func (d *DisputeStore) LoadDisputes(ctx context.Context) ([]domain.DisputeRecord, error) {
	return LoadList[domain.DisputeRecord](ctx, d.store, disputesKey)
}

func (d *DisputeStore) SaveDisputes(ctx context.Context, disputes []domain.DisputeRecord) error {
	return SaveList(ctx, d.store, disputesKey, disputes)
}
