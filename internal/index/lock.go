package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// lockBuild obtains the per-index build lock, waiting until ctx is done.
func lockBuild(ctx context.Context, indexPath string) (func(), error) {
	lockPath := indexPath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	locked, err := l.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return func() {}, fmt.Errorf("another index build is in progress (lock: %s): %w", lockPath, err)
	}
	if !locked {
		return func() {}, fmt.Errorf("another index build is in progress (lock: %s)", lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}
