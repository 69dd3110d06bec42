package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Write writes records as a JSON index to path, plus the manifest sidecar.
// It does not swap atomically; Build writes to a temp file and swaps it in.
func Write(path string, manifest Manifest, records []Record) error {
	if _, err := New(records); err != nil {
		return fmt.Errorf("refusing to write invalid index: %w", err)
	}
	if manifest.IndexVersion == 0 {
		manifest.IndexVersion = 1
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	manifest.Dim = len(records[0].Vector)
	manifest.Count = len(records)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create index dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create index file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := json.NewEncoder(bw).Encode(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot encode index: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return writeManifest(ManifestPath(path), manifest)
}

func writeManifest(path string, m Manifest) error {
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}
