package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultStorageFile is the file name used beside the config file.
const DefaultStorageFile = "storage.yaml"

// FileStore keeps all keys in one YAML document. Every write replaces the file
// atomically, so a crash leaves either the old or the new content.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, ErrReadFailed.Err(err)
	}
	kv := map[string]string{}
	if err := yaml.Unmarshal(data, &kv); err != nil {
		return nil, ErrParseFailed.Err(err)
	}
	if kv == nil {
		kv = map[string]string{}
	}
	return kv, nil
}

func (s *FileStore) save(kv map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return ErrWriteFailed.Err(err)
	}
	data, err := yaml.Marshal(kv)
	if err != nil {
		return ErrWriteFailed.Err(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storage-*.yaml")
	if err != nil {
		return ErrWriteFailed.Err(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ErrWriteFailed.Err(err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return ErrWriteFailed.Err(err)
	}
	if err := tmp.Close(); err != nil {
		return ErrWriteFailed.Err(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return ErrWriteFailed.Err(err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		return "", err
	}
	return kv[key], nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		// A corrupt file must not block new writes.
		log.Warn().Err(err).Str("path", s.path).Msg("discarding unreadable storage file")
		kv = map[string]string{}
	}
	kv[key] = value
	return s.save(kv)
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kv, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := kv[key]; !ok {
		return nil
	}
	delete(kv, key)
	return s.save(kv)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ErrWriteFailed.Err(err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
