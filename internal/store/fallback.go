package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"kasirlite/internal/domain"
)

// Fallback writes every save to the primary target and mirrors it to the
// secondaries. A save succeeds when at least one target accepted it. Loads
// try the primary first and then each secondary in order.
type Fallback struct {
	primary     Persistence
	secondaries []Persistence
	logger      *zap.Logger
}

func NewFallback(logger *zap.Logger, primary Persistence, secondaries ...Persistence) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		primary:     primary,
		secondaries: secondaries,
		logger:      logger.Named("persistence"),
	}
}

func (f *Fallback) targets() []Persistence {
	return append([]Persistence{f.primary}, f.secondaries...)
}

func (f *Fallback) LoadStore(ctx context.Context) (domain.Snapshot, error) {
	var errs error
	for i, target := range f.targets() {
		snapshot, err := target.LoadStore(ctx)
		if err == nil {
			if i > 0 {
				f.logger.Warn("store loaded from secondary", zap.Int("target", i))
			}
			return snapshot, nil
		}
		f.logger.Warn("load store failed", zap.Int("target", i), zap.Error(err))
		errs = errors.CombineErrors(errs, err)
	}
	return domain.Snapshot{}, errors.Mark(errors.Wrap(errs, "load store"), ErrPersistence)
}

func (f *Fallback) SaveStore(ctx context.Context, snapshot domain.Snapshot) error {
	return f.saveAll("save store", func(target Persistence) error {
		return target.SaveStore(ctx, snapshot)
	})
}

func (f *Fallback) LoadDrafts(ctx context.Context) ([]domain.PendingSale, error) {
	var errs error
	for i, target := range f.targets() {
		drafts, err := target.LoadDrafts(ctx)
		if err == nil {
			if i > 0 {
				f.logger.Warn("drafts loaded from secondary", zap.Int("target", i))
			}
			return drafts, nil
		}
		f.logger.Warn("load drafts failed", zap.Int("target", i), zap.Error(err))
		errs = errors.CombineErrors(errs, err)
	}
	return nil, errors.Mark(errors.Wrap(errs, "load drafts"), ErrPersistence)
}

func (f *Fallback) SaveDrafts(ctx context.Context, drafts []domain.PendingSale) error {
	return f.saveAll("save drafts", func(target Persistence) error {
		return target.SaveDrafts(ctx, drafts)
	})
}

func (f *Fallback) saveAll(op string, save func(Persistence) error) error {
	var errs error
	saved := 0
	for i, target := range f.targets() {
		if err := save(target); err != nil {
			f.logger.Warn(op+" failed", zap.Int("target", i), zap.Error(err))
			errs = errors.CombineErrors(errs, err)
			continue
		}
		saved++
	}
	if saved == 0 {
		return errors.Mark(errors.Wrap(errs, op), ErrPersistence)
	}
	return nil
}
