// Package file stores site scripts and site designs as JSON files in a directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/gofrs/flock"
)

const (
	ext          = ".json"
	lockName     = ".sitescript.lock"
	lockRetry    = 50 * time.Millisecond
	lockDeadline = 3 * time.Second
)

// ErrInvalidID is returned for IDs that cannot be used as file names.
var ErrInvalidID = errors.New("invalid id")

// Store implements ports.ScriptStore on the local filesystem, one file per script.
// Writers in other processes are excluded with an advisory lock file.
type Store struct {
	BasePath string
	lock     *flock.Flock
}

// NewStore creates a store rooted at basePath, defaulting to "./scripts".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = "scripts"
	}
	return &Store{
		BasePath: basePath,
		lock:     flock.New(filepath.Join(basePath, lockName)),
	}
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.BasePath, id+ext), nil
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory %s: %w", s.BasePath, err)
	}

	ctx, cancel := context.WithTimeout(ctx, lockDeadline)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire file lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// Save writes the script atomically (temp file and rename).
func (s *Store) Save(ctx context.Context, script *domain.SiteScript) error {
	return s.write(ctx, script.ID, script)
}

// Load reads a script file.
func (s *Store) Load(ctx context.Context, id string) (*domain.SiteScript, error) {
	var script domain.SiteScript
	if err := s.read(id, &script); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrScriptNotFound
		}
		return nil, err
	}
	return &script, nil
}

// Delete removes the script file.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.remove(ctx, id)
}

// List returns the IDs of all script files in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.list()
}

func (s *Store) write(ctx context.Context, id string, v any) error {
	target, err := s.path(id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	return s.withLock(ctx, func() error {
		tmp, err := os.CreateTemp(s.BasePath, "."+id+"-*")
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		if err := os.Rename(tmp.Name(), target); err != nil {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
		return nil
	})
}

// read decodes the file of id into v. A missing file is reported as os.ErrNotExist.
func (s *Store) read(id string, v any) error {
	target, err := s.path(id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to read %s: %w", target, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", target, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, id string) error {
	target, err := s.path(id)
	if err != nil {
		return err
	}

	return s.withLock(ctx, func() error {
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", target, err)
		}
		return nil
	})
}

func (s *Store) list() ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.BasePath, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}
