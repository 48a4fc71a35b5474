package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kasirlite/internal/clock"
	"kasirlite/internal/domain"
	"kasirlite/internal/store"
	"kasirlite/internal/xid"
)

// Service is the single entry point for catalog, sales and draft operations.
// Calls are serialized; the repository is authoritative and every mutation
// is followed by a best-effort save through the persistence collaborator.
type Service struct {
	mu          sync.Mutex
	repo        store.Repository
	persistence store.Persistence
	logger      *zap.Logger
	clock       clock.Clock
	location    *time.Location
	ids         *xid.Sequence
}

func New(repo store.Repository, persistence store.Persistence, logger *zap.Logger, clk clock.Clock, location *time.Location) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.NewReal()
	}
	if location == nil {
		location = time.Local
	}

	return &Service{
		repo:        repo,
		persistence: persistence,
		logger:      logger.Named("service"),
		clock:       clk,
		location:    location,
		ids:         xid.NewSequence(clk),
	}
}

// Load hydrates the repository from persistence. Unreadable or invalid data
// is logged and replaced by an empty store, so Load never fails.
func (s *Service) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.persistence.LoadStore(ctx)
	if err != nil {
		s.logger.Warn("load store failed, starting empty", zap.Error(err))
		snapshot = domain.Snapshot{}
	}
	if err := s.repo.Restore(ctx, snapshot); err != nil {
		s.logger.Warn("stored data is invalid, starting empty", zap.Error(err))
		snapshot = domain.Snapshot{}
		_ = s.repo.Restore(ctx, snapshot)
	}
	s.observeIDs(snapshot)

	drafts, err := s.persistence.LoadDrafts(ctx)
	if err != nil {
		s.logger.Warn("load pending sales failed, starting without drafts", zap.Error(err))
		drafts = nil
	}
	if err := s.repo.RestoreDrafts(ctx, drafts); err != nil {
		s.logger.Warn("stored pending sales are invalid, discarding", zap.Error(err))
		_ = s.repo.RestoreDrafts(ctx, nil)
	}

	s.logger.Info("store loaded",
		zap.Int("products", len(snapshot.Products)),
		zap.Int("sales", len(snapshot.Sales)),
		zap.Int("drafts", len(drafts)),
	)
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.location)
}

func (s *Service) observeIDs(snapshot domain.Snapshot) {
	for _, p := range snapshot.Products {
		s.ids.Observe(p.ID)
	}
	for _, sale := range snapshot.Sales {
		s.ids.Observe(sale.ID)
	}
}

// persistStore saves the whole store. Failures are logged and swallowed:
// the in-memory state stays authoritative.
func (s *Service) persistStore(ctx context.Context) {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot failed", zap.Error(err))
		return
	}
	if err := s.persistence.SaveStore(ctx, snapshot); err != nil {
		s.logger.Warn("save store failed", zap.Error(err))
	}
}

func (s *Service) persistDrafts(ctx context.Context) {
	drafts, err := s.repo.ListDrafts(ctx)
	if err != nil {
		s.logger.Warn("list pending sales failed", zap.Error(err))
		return
	}
	if err := s.persistence.SaveDrafts(ctx, drafts); err != nil {
		s.logger.Warn("save pending sales failed", zap.Error(err))
	}
}
