// Package credential manages the per-account session credential blobs on disk.
package credential

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store locates per-account credential databases under a base directory.
// The orchestrator never inspects the blob; the protocol client owns its
// format. The store only answers existence questions and hands out paths.
type Store struct {
	dir string
}

// NewStore creates a credential store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the credential location for an account.
func (s *Store) Path(accountID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("session-%s.db", accountID))
}

// Exists reports whether a credential has been stored for the account.
func (s *Store) Exists(accountID string) bool {
	_, err := os.Stat(s.Path(accountID))
	return err == nil
}

// Delete removes the stored credential. Missing credentials are not an error.
func (s *Store) Delete(accountID string) error {
	err := os.Remove(s.Path(accountID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
