//go:build !windows

package index

import (
	"errors"
	"os"
)

// cleanupBackup removes a replaced index file.
func cleanupBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}
	err := os.Remove(backupPath)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
