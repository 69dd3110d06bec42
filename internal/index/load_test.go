package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docseek/docseek/internal/apperr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_IndexHappyPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "embeddings.json", `[
	  {"file_name": "site_plan.pdf", "file_name_embedding": [1, 0], "href": "https://h/oss/v2/buckets/b/objects/site_plan.pdf"},
	  {"file_name": "budget.xlsx", "file_name_embedding": [0, 1], "href": "https://h/oss/v2/buckets/b/objects/budget.xlsx"}
	]`)

	idx, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Dim() != 2 {
		t.Fatalf("dim = %d, want 2", idx.Dim())
	}
	if idx.Len() != 2 {
		t.Fatalf("len = %d, want 2", idx.Len())
	}
	if got := idx.At(1).Name; got != "budget.xlsx" {
		t.Fatalf("At(1).Name = %q", got)
	}
	if _, ok := idx.Manifest(); ok {
		t.Fatalf("expected no manifest")
	}
}

func TestLoad_WithManifest(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "embeddings.json", `[{"file_name": "a", "file_name_embedding": [1, 0, 0], "href": "h"}]`)
	writeFile(t, dir, "embeddings.json.manifest.json", `{"index_version": 1, "model_id": "openai:m", "dim": 3}`)

	idx, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, ok := idx.Manifest()
	if !ok || m.ModelID != "openai:m" {
		t.Fatalf("manifest = %+v, %v", m, ok)
	}

	writeFile(t, dir, "embeddings.json.manifest.json", `{"dim": 4}`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected dim mismatch error")
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"object":        `{"file_name": "a"}`,
		"empty array":   `[]`,
		"null":          `null`,
		"garbage":       `[{"file_name": `,
		"empty name":    `[{"file_name": "", "file_name_embedding": [1], "href": "h"}]`,
		"empty href":    `[{"file_name": "a", "file_name_embedding": [1], "href": ""}]`,
		"empty vector":  `[{"file_name": "a", "file_name_embedding": [], "href": "h"}]`,
		"dim mismatch":  `[{"file_name": "a", "file_name_embedding": [1, 2], "href": "h"}, {"file_name": "b", "file_name_embedding": [1], "href": "h"}]`,
		"string vector": `[{"file_name": "a", "file_name_embedding": "x", "href": "h"}]`,
		"whitespace":    "   \n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "embeddings.json", content)
			_, err := Load(p)
			var le *apperr.IndexLoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected IndexLoadError, got %v", err)
			}
			if le.Path != p {
				t.Fatalf("path = %q, want %q", le.Path, p)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	var le *apperr.IndexLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected IndexLoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestWriteThenLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "idx.json")
	records := []Record{
		{Name: "a.pdf", Vector: []float32{0.5, 0.5}, Href: "h1"},
		{Name: "b.pdf", Vector: []float32{1, 0}, Href: "h2"},
	}
	if err := Write(p, Manifest{ModelID: "static:t"}, records); err != nil {
		t.Fatalf("Write: %v", err)
	}
	idx, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, ok := idx.Manifest()
	if !ok || m.Count != 2 || m.Dim != 2 || m.CreatedAt == "" {
		t.Fatalf("manifest = %+v", m)
	}
	if idx.At(0).Vector[0] != 0.5 {
		t.Fatalf("vector not preserved: %v", idx.At(0).Vector)
	}
}

func TestCosine(t *testing.T) {
	got, err := Cosine([]float32{1, 0}, []float32{1, 0})
	if err != nil || got != 1 {
		t.Fatalf("Cosine identical = %v, %v", got, err)
	}
	got, _ = Cosine([]float32{1, 0}, []float32{0, 1})
	if got != 0 {
		t.Fatalf("Cosine orthogonal = %v", got)
	}
	got, _ = Cosine([]float32{0, 0}, []float32{1, 0})
	if got != 0 {
		t.Fatalf("Cosine zero vector = %v", got)
	}
	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, ErrVectorLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}
