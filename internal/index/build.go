package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docseek/docseek/internal/embeddings"
	"github.com/docseek/docseek/internal/logger"
)

// ListingEntry is one file in a listing produced by Collect and consumed by Build.
type ListingEntry struct {
	Name string `json:"file_name"`
	Href string `json:"href"`
}

// ReadListing reads a JSON array of listing entries.
func ReadListing(path string) ([]ListingEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read listing %s: %w", path, err)
	}
	var out []ListingEntry
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("invalid listing JSON %s: %w", path, err)
	}
	return out, nil
}

// WriteListing writes entries as an indented JSON array.
func WriteListing(path string, entries []ListingEntry) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create listing dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("cannot write listing %s: %w", path, err)
	}
	return nil
}

// BuildOptions controls index building.
type BuildOptions struct {
	Entries     []ListingEntry
	OutPath     string
	Force       bool
	Normalize   bool
	Concurrency int
	Logger      *zap.Logger
}

// BuildStats reports what a build did.
type BuildStats struct {
	Embedded int
	Reused   int
	Skipped  int
}

// Build embeds every listing entry and atomically replaces the index at OutPath.
//
// Vectors from an existing index are reused when the entry and the model are
// unchanged, unless Force is set. Only one build may run per OutPath.
func Build(ctx context.Context, prov embeddings.Provider, opts BuildOptions) (*Index, BuildStats, error) {
	var stats BuildStats
	if opts.OutPath == "" {
		return nil, stats, fmt.Errorf("out path is required")
	}
	log := logger.OrNop(opts.Logger)

	unlock, err := lockBuild(ctx, opts.OutPath)
	if err != nil {
		return nil, stats, err
	}
	defer unlock()

	entries := make([]ListingEntry, 0, len(opts.Entries))
	for _, e := range opts.Entries {
		if e.Name == "" || e.Href == "" {
			stats.Skipped++
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, stats, fmt.Errorf("no entries to index")
	}

	reuse := map[string][]float32{}
	if !opts.Force {
		if old, err := Load(opts.OutPath); err == nil {
			if m, ok := old.Manifest(); ok && m.ModelID == prov.ModelID() && m.Normalize == opts.Normalize {
				for i := 0; i < old.Len(); i++ {
					r := old.At(i)
					reuse[entryKey(r.Name, r.Href)] = r.Vector
				}
			}
		}
	}

	records := make([]Record, len(entries))
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entries {
		records[i] = Record{Name: e.Name, Href: e.Href}
		if v, ok := reuse[entryKey(e.Name, e.Href)]; ok {
			records[i].Vector = v
			stats.Reused++
			continue
		}
		stats.Embedded++
		g.Go(func() error {
			emb, err := prov.Embed(gctx, EmbedText(e.Name))
			if err != nil {
				return fmt.Errorf("embedding %q: %w", e.Name, err)
			}
			if opts.Normalize {
				emb = NormalizeL2(emb)
			}
			records[i].Vector = emb
			log.Debug("embedded", zap.String("name", e.Name), zap.Int("dim", len(emb)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	idx, err := New(records)
	if err != nil {
		return nil, stats, fmt.Errorf("built index is invalid: %w", err)
	}

	manifest := Manifest{
		IndexVersion: 1,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ModelID:      prov.ModelID(),
		Normalize:    opts.Normalize,
	}
	tmp := opts.OutPath + ".tmp"
	if err := Write(tmp, manifest, records); err != nil {
		return nil, stats, err
	}
	// Manifest before vectors. Load rejects the pair while their dims disagree.
	mpath := ManifestPath(opts.OutPath)
	prev, prevErr := os.ReadFile(mpath)
	if err := os.Rename(ManifestPath(tmp), mpath); err != nil {
		return nil, stats, fmt.Errorf("cannot move manifest into place: %w", err)
	}
	if err := AtomicSwap(tmp, opts.OutPath); err != nil {
		if prevErr == nil {
			_ = os.WriteFile(mpath, prev, 0o644)
		} else {
			_ = os.Remove(mpath)
		}
		return nil, stats, fmt.Errorf("cannot swap index into place: %w", err)
	}

	idx.path = opts.OutPath
	m := manifest
	m.Dim, m.Count = idx.dim, len(records)
	idx.manifest = &m
	log.Info("index built",
		zap.String("path", opts.OutPath),
		zap.Int("records", len(records)),
		zap.Int("embedded", stats.Embedded),
		zap.Int("reused", stats.Reused))
	return idx, stats, nil
}
