package index

import (
	"os"
	"path/filepath"
)

// AtomicSwap replaces dest with src by renaming, keeping a backup until the
// new file is in place.
func AtomicSwap(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	backup := dest + ".bak"
	_ = cleanupBackup(backup)
	if _, err := os.Stat(dest); err == nil {
		if err := os.Rename(dest, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dest); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, dest)
		}
		return err
	}
	_ = cleanupBackup(backup)
	return nil
}
