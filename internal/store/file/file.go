package file

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"kasirlite/internal/domain"
	"kasirlite/internal/store"
)

// Store persists the ledger as two JSON documents: the store (products and
// sales) and the pending drafts. Writes go to a temp file that is renamed
// over the target, so a crash never leaves a half-written document.
type Store struct {
	mu        sync.Mutex
	storePath string
	draftPath string
}

func New(storePath string, draftPath string) (*Store, error) {
	for _, path := range []string{storePath, draftPath} {
		if path == "" {
			return nil, errors.Wrap(store.ErrInvalidArgument, "file path is required")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create data dir for %s", path)
		}
	}
	return &Store{storePath: storePath, draftPath: draftPath}, nil
}

// LoadStore returns an empty store when the file does not exist yet.
func (s *Store) LoadStore(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := domain.Snapshot{Products: []domain.Product{}, Sales: []domain.Sale{}}
	found, err := readJSON(s.storePath, &snapshot)
	if err != nil || !found {
		return domain.Snapshot{Products: []domain.Product{}, Sales: []domain.Sale{}}, err
	}
	return normalize(snapshot), nil
}

func (s *Store) SaveStore(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.storePath, normalize(snapshot))
}

func (s *Store) LoadDrafts(_ context.Context) ([]domain.PendingSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts := []domain.PendingSale{}
	if _, err := readJSON(s.draftPath, &drafts); err != nil {
		return []domain.PendingSale{}, err
	}
	if drafts == nil {
		drafts = []domain.PendingSale{}
	}
	return drafts, nil
}

func (s *Store) SaveDrafts(_ context.Context, drafts []domain.PendingSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if drafts == nil {
		drafts = []domain.PendingSale{}
	}
	return writeJSON(s.draftPath, drafts)
}

// Export writes the snapshot to a user-chosen path.
func Export(path string, snapshot domain.Snapshot) error {
	return writeJSON(path, normalize(snapshot))
}

// Import reads a snapshot from a user-chosen path. Unlike LoadStore, a
// missing or corrupt file is an error.
func Import(path string) (domain.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Snapshot{}, errors.Mark(errors.Wrapf(err, "open %s", path), store.ErrPersistence)
	}
	defer f.Close()

	return Decode(f)
}

// Encode writes the snapshot as indented JSON.
func Encode(w io.Writer, snapshot domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(snapshot)); err != nil {
		return errors.Mark(errors.Wrap(err, "encode store"), store.ErrPersistence)
	}
	return nil
}

func Decode(r io.Reader) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return domain.Snapshot{}, errors.Mark(errors.Wrap(err, "decode store"), store.ErrPersistence)
	}
	return normalize(snapshot), nil
}

func normalize(snapshot domain.Snapshot) domain.Snapshot {
	if snapshot.Products == nil {
		snapshot.Products = []domain.Product{}
	}
	if snapshot.Sales == nil {
		snapshot.Sales = []domain.Sale{}
	}
	return snapshot
}

func readJSON(path string, dst any) (bool, error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Mark(errors.Wrapf(err, "read %s", path), store.ErrPersistence)
	}
	if len(payload) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, errors.Mark(errors.Wrapf(err, "parse %s", path), store.ErrPersistence)
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "encode %s", path), store.ErrPersistence)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "create temp file for %s", path), store.ErrPersistence)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return errors.Mark(errors.Wrapf(err, "write %s", tmpName), store.ErrPersistence)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Mark(errors.Wrapf(err, "sync %s", tmpName), store.ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "close %s", tmpName), store.ErrPersistence)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Mark(errors.Wrapf(err, "replace %s", path), store.ErrPersistence)
	}
	return nil
}
