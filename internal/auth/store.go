package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ecerrors "github.com/harunnryd/eventcorner/internal/errors"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

const (
	lockRetry    = 50 * time.Millisecond
	lockMaxRetry = 40
)

// Store persists the auth context to a JSON file. Writers hold an exclusive
// file lock; the file itself is replaced atomically.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns Anonymous when no session has been saved.
func (s *Store) Load() (Context, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Anonymous, nil
		}
		return Anonymous, fmt.Errorf("read session file: %w", err)
	}

	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return Anonymous, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return ctx, nil
}

func (s *Store) Save(ctx Context) error {
	if !ctx.Authenticated() {
		return ecerrors.InvalidInput("user id and token are required")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		slog.Warn("Failed to restrict session file permissions", "path", s.path, "error", err)
	}

	slog.Info("Session saved", "user_id", ctx.UserID, "path", s.path)
	return nil
}

func (s *Store) Clear() error {
	unlock, err := s.lock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) lock() (func(), error) {
	fileLock := flock.New(s.path + ".lock")
	for i := 0; i < lockMaxRetry; i++ {
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to attempt lock: %w", err)
		}
		if locked {
			return func() {
				if err := fileLock.Unlock(); err != nil {
					slog.Error("Failed to release session lock", "path", s.path, "error", err)
				}
			}, nil
		}
		time.Sleep(lockRetry)
	}
	return nil, fmt.Errorf("session file %s is locked by another process", s.path)
}
