//go:build windows

package index

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// cleanupBackup removes a replaced index file.
//
// Search indexers and antivirus scanners may still hold the old index open.
// Retry briefly, then schedule deletion at next reboot.
func cleanupBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}

	tryRemove := func() error {
		err := os.Remove(backupPath)
		if err == nil {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var lastErr error
	for range 10 {
		if lastErr = tryRemove(); lastErr == nil {
			return nil
		}
		time.Sleep(lockRetryDelay)
	}

	p, err := windows.UTF16PtrFromString(backupPath)
	if err != nil {
		return lastErr
	}
	if err := windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
		return lastErr
	}
	return nil
}
