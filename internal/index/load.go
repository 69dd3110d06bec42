package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/docseek/docseek/internal/apperr"
)

// ManifestPath returns the sidecar manifest path for an index file.
func ManifestPath(indexPath string) string {
	return indexPath + ".manifest.json"
}

// Load reads the JSON index at path. The result is immutable.
//
// Any problem with the file is reported as *apperr.IndexLoadError.
func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.IndexLoadError{Path: path, Err: err}
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, &apperr.IndexLoadError{Path: path, Err: errors.New("index is not a JSON array")}
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, &apperr.IndexLoadError{Path: path, Err: fmt.Errorf("invalid index JSON: %w", err)}
	}

	idx, err := New(records)
	if err != nil {
		return nil, &apperr.IndexLoadError{Path: path, Err: err}
	}
	idx.path = path

	m, err := loadManifest(ManifestPath(path))
	if err != nil {
		return nil, &apperr.IndexLoadError{Path: path, Err: err}
	}
	if m != nil && m.Dim != 0 && m.Dim != idx.dim {
		return nil, &apperr.IndexLoadError{Path: path, Err: fmt.Errorf("manifest dim %d does not match vectors (%d)", m.Dim, idx.dim)}
	}
	idx.manifest = m
	return idx, nil
}

// New validates records and wraps them in an Index. The slice is not copied.
func New(records []Record) (*Index, error) {
	if len(records) == 0 {
		return nil, errors.New("index is empty")
	}
	dim := len(records[0].Vector)
	for i, r := range records {
		switch {
		case r.Name == "":
			return nil, fmt.Errorf("record %d: empty file_name", i)
		case r.Href == "":
			return nil, fmt.Errorf("record %d (%s): empty href", i, r.Name)
		case len(r.Vector) == 0:
			return nil, fmt.Errorf("record %d (%s): empty embedding", i, r.Name)
		case len(r.Vector) != dim:
			return nil, fmt.Errorf("record %d (%s): embedding dim %d, want %d", i, r.Name, len(r.Vector), dim)
		}
	}
	return &Index{records: records, dim: dim}, nil
}

func loadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", path, err)
	}
	return &m, nil
}
