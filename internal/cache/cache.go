package cache

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

const (
	storeKeySuffix  = "store"
	draftsKeySuffix = "pending_sales"
)

func keyFor(prefix string, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + ":" + suffix
}

func decodeSnapshot(payload []byte) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, errors.Mark(errors.Wrap(err, "decode cached store"), store.ErrPersistence)
	}
	if snapshot.Products == nil {
		snapshot.Products = []domain.Product{}
	}
	if snapshot.Sales == nil {
		snapshot.Sales = []domain.Sale{}
	}
	return snapshot, nil
}

func decodeDrafts(payload []byte) ([]domain.PendingSale, error) {
	drafts := []domain.PendingSale{}
	if err := json.Unmarshal(payload, &drafts); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode cached drafts"), store.ErrPersistence)
	}
	if drafts == nil {
		drafts = []domain.PendingSale{}
	}
	return drafts, nil
}
