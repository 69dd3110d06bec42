package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/logger"
)

// FolderLister lists the direct children of a repository folder.
type FolderLister interface {
	ListFolderContents(ctx context.Context, cred, projectID, folderID string) ([]dm.Node, error)
}

// CollectOptions controls a listing walk.
type CollectOptions struct {
	ProjectID string
	FolderID  string
	// MaxDepth limits recursion below FolderID; values <= 0 mean unlimited.
	MaxDepth int
	Logger   *zap.Logger
}

// Collect walks a folder tree depth-first and returns one listing entry per
// distinct (file name, storage link) pair. Files without a link are skipped.
func Collect(ctx context.Context, lister FolderLister, cred string, opts CollectOptions) ([]ListingEntry, error) {
	if opts.ProjectID == "" || opts.FolderID == "" {
		return nil, fmt.Errorf("project and folder are required")
	}
	log := logger.OrNop(opts.Logger)

	seen := map[ListingEntry]bool{}
	visited := map[string]bool{}
	var out []ListingEntry

	var walk func(folderID string, depth int) error
	walk = func(folderID string, depth int) error {
		if visited[folderID] {
			return nil
		}
		visited[folderID] = true

		nodes, err := lister.ListFolderContents(ctx, cred, opts.ProjectID, folderID)
		if err != nil {
			return err
		}
		log.Debug("collected folder", zap.String("folder", folderID), zap.Int("entries", len(nodes)))
		for _, n := range nodes {
			switch n.Kind {
			case dm.KindFolder:
				if opts.MaxDepth > 0 && depth+1 > opts.MaxDepth {
					continue
				}
				if err := walk(n.ID, depth+1); err != nil {
					return err
				}
			case dm.KindFile:
				name := n.FileName
				if name == "" {
					name = n.Name
				}
				e := ListingEntry{Name: name, Href: n.StorageLink}
				if e.Href == "" || seen[e] {
					continue
				}
				seen[e] = true
				out = append(out, e)
			}
		}
		return nil
	}

	if err := walk(opts.FolderID, 0); err != nil {
		return nil, err
	}
	return out, nil
}
