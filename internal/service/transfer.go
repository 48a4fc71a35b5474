package service

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
	"kasirlite/internal/store/file"
)

// ExportStore writes the whole store (products and sales) as JSON.
func (s *Service) ExportStore(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	return file.Encode(w, snapshot)
}

func (s *Service) ExportFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := file.Export(path, snapshot); err != nil {
		return err
	}
	s.logger.Info("store exported", zap.String("path", path), zap.Int("products", len(snapshot.Products)), zap.Int("sales", len(snapshot.Sales)))
	return nil
}

// ImportStore replaces the in-memory store with the decoded document and
// saves it. Unlike routine saves, a failed save is returned here. Drafts
// are not part of the document and are left untouched.
func (s *Service) ImportStore(ctx context.Context, r io.Reader) error {
	snapshot, err := file.Decode(r)
	if err != nil {
		return err
	}
	return s.replace(ctx, snapshot)
}

func (s *Service) ImportFile(ctx context.Context, path string) error {
	snapshot, err := file.Import(path)
	if err != nil {
		return err
	}
	if err := s.replace(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Info("store imported", zap.String("path", path), zap.Int("products", len(snapshot.Products)), zap.Int("sales", len(snapshot.Sales)))
	return nil
}

func (s *Service) replace(ctx context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Restore(ctx, snapshot); err != nil {
		return errors.Wrap(err, "import store")
	}
	s.observeIDs(snapshot)

	current, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.persistence.SaveStore(ctx, current); err != nil {
		return errors.Mark(errors.Wrap(err, "save imported store"), store.ErrPersistence)
	}
	return nil
}
