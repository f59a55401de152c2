package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const lockFileName = "dialect-search-provider.lock"

// acquireInstanceLock takes a non-blocking file lock so only one provider
// instance answers the host shell at a time. The returned function releases
// the lock.
func acquireInstanceLock(runtimeDir string) (func() error, error) {
	dir := strings.TrimSpace(runtimeDir)
	if dir == "" {
		dir = os.Getenv("XDG_RUNTIME_DIR")
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create runtime directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("instance lock at %s is held by another process", fl.Path())
	}
	return fl.Unlock, nil
}
