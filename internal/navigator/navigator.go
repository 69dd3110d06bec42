// Package navigator walks the repository hierarchy hub → project → folder →
// file, resolving one approximate name per level.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/fuzzy"
	"github.com/docseek/docseek/internal/logger"
)

// ErrInvalidState is returned when an operation is called out of order.
var ErrInvalidState = errors.New("operation not valid in current navigation state")

// State is a session's position in the traversal.
type State int

const (
	StateStart State = iota
	StateHubsListed
	StateProjectListed
	StateFolderListed
	StateFileLocated
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateHubsListed:
		return "hubs-listed"
	case StateProjectListed:
		return "project-listed"
	case StateFolderListed:
		return "folder-listed"
	case StateFileLocated:
		return "file-located"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Repository is the listing surface the navigator needs.
type Repository interface {
	ListHubs(ctx context.Context, cred string) ([]dm.Node, error)
	ListProjects(ctx context.Context, cred, hubID string) ([]dm.Node, error)
	ListFolderContents(ctx context.Context, cred, projectID, folderID string) ([]dm.Node, error)
}

// Path is a fully specified traversal of approximate names.
type Path struct {
	Hub     string   `json:"hub"`
	Project string   `json:"project"`
	Folders []string `json:"folders"`
	File    string   `json:"file"`
}

// Session is one traversal. It is not safe for concurrent use.
type Session struct {
	id       uuid.UUID
	repo     Repository
	resolver fuzzy.Resolver
	logger   *zap.Logger

	state   State
	listing []dm.Node
	trail   []dm.Node
	file    dm.Node
}

// NewSession starts a session in StateStart.
func NewSession(repo Repository, resolver fuzzy.Resolver, log *zap.Logger) *Session {
	id := uuid.New()
	return &Session{
		id:       id,
		repo:     repo,
		resolver: resolver,
		logger:   logger.OrNop(log).With(zap.String("session", id.String())),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Listing returns the entries the next selection chooses from.
func (s *Session) Listing() []dm.Node { return slices.Clone(s.listing) }

// Trail returns the nodes selected so far: hub, project, then folders.
func (s *Session) Trail() []dm.Node { return slices.Clone(s.trail) }

// Reset returns to StateStart and discards everything accumulated.
func (s *Session) Reset() {
	s.state = StateStart
	s.listing = nil
	s.trail = nil
	s.file = dm.Node{}
}

// ListHubs restarts the traversal and lists the hubs visible to cred.
func (s *Session) ListHubs(ctx context.Context, cred string) ([]dm.Node, error) {
	s.Reset()
	hubs, err := s.repo.ListHubs(ctx, cred)
	if err != nil {
		return nil, err
	}
	s.listing = hubs
	s.state = StateHubsListed
	s.logger.Debug("listed hubs", zap.Int("count", len(hubs)))
	return s.Listing(), nil
}

// SelectHub resolves approxName among the listed hubs and lists its projects.
func (s *Session) SelectHub(ctx context.Context, cred, approxName string) (dm.Node, error) {
	if err := s.require(StateHubsListed, "select hub"); err != nil {
		return dm.Node{}, err
	}
	hub, err := s.pick(ctx, "hub", s.listing, approxName)
	if err != nil {
		return dm.Node{}, err
	}
	projects, err := s.repo.ListProjects(ctx, cred, hub.ID)
	if err != nil {
		return dm.Node{}, err
	}
	s.trail = append(s.trail, hub)
	s.listing = projects
	s.state = StateProjectListed
	s.logger.Debug("selected hub", zap.String("id", hub.ID), zap.String("name", hub.Name), zap.Int("projects", len(projects)))
	return hub, nil
}

// SelectProject resolves approxName among the listed projects and lists the
// project's root folder.
func (s *Session) SelectProject(ctx context.Context, cred, approxName string) (dm.Node, error) {
	if err := s.require(StateProjectListed, "select project"); err != nil {
		return dm.Node{}, err
	}
	project, err := s.pick(ctx, "project", s.listing, approxName)
	if err != nil {
		return dm.Node{}, err
	}
	if project.RootFolderID == "" {
		return dm.Node{}, fmt.Errorf("%w: project %q has no root folder", apperr.ErrResolutionNotFound, project.Name)
	}
	contents, err := s.repo.ListFolderContents(ctx, cred, project.ID, project.RootFolderID)
	if err != nil {
		return dm.Node{}, err
	}
	s.trail = append(s.trail, project)
	s.listing = contents
	s.state = StateFolderListed
	s.logger.Debug("selected project", zap.String("id", project.ID), zap.String("name", project.Name), zap.Int("entries", len(contents)))
	return project, nil
}

// Descend resolves approxName among the current folder's entries, optionally
// restricted to kinds. A folder is listed and the session stays in
// StateFolderListed; a file moves the session to StateFileLocated.
func (s *Session) Descend(ctx context.Context, cred, approxName string, kinds ...dm.Kind) (dm.Node, error) {
	if err := s.require(StateFolderListed, "descend"); err != nil {
		return dm.Node{}, err
	}
	entries := s.listing
	level := "entry"
	if len(kinds) > 0 {
		entries = make([]dm.Node, 0, len(s.listing))
		for _, n := range s.listing {
			if slices.Contains(kinds, n.Kind) {
				entries = append(entries, n)
			}
		}
		if len(kinds) == 1 {
			level = string(kinds[0])
		}
	}
	node, err := s.pick(ctx, level, entries, approxName)
	if err != nil {
		return dm.Node{}, err
	}

	switch node.Kind {
	case dm.KindFolder:
		contents, err := s.repo.ListFolderContents(ctx, cred, s.projectID(), node.ID)
		if err != nil {
			return dm.Node{}, err
		}
		s.trail = append(s.trail, node)
		s.listing = contents
		s.logger.Debug("descended", zap.String("folder", node.ID), zap.String("name", node.Name), zap.Int("entries", len(contents)))
	case dm.KindFile:
		s.file = node
		s.listing = nil
		s.state = StateFileLocated
		s.logger.Debug("located file", zap.String("id", node.ID), zap.String("name", node.Name), zap.String("link", node.StorageLink))
	default:
		return dm.Node{}, fmt.Errorf("%w: unexpected %s entry %q", apperr.ErrResolutionNotFound, node.Kind, node.Name)
	}
	return node, nil
}

// File returns the located file.
func (s *Session) File() (dm.Node, error) {
	if err := s.require(StateFileLocated, "file"); err != nil {
		return dm.Node{}, err
	}
	return s.file, nil
}

// Navigate runs the whole chain for p from a fresh start. It returns the file
// when p.File is set, otherwise the last folder reached.
func (s *Session) Navigate(ctx context.Context, cred string, p Path) (dm.Node, error) {
	if _, err := s.ListHubs(ctx, cred); err != nil {
		return dm.Node{}, err
	}
	if _, err := s.SelectHub(ctx, cred, p.Hub); err != nil {
		return dm.Node{}, err
	}
	last, err := s.SelectProject(ctx, cred, p.Project)
	if err != nil {
		return dm.Node{}, err
	}
	for _, f := range p.Folders {
		if last, err = s.Descend(ctx, cred, f, dm.KindFolder); err != nil {
			return dm.Node{}, err
		}
	}
	if p.File == "" {
		return last, nil
	}
	return s.Descend(ctx, cred, p.File, dm.KindFile)
}

func (s *Session) require(want State, op string) error {
	if s.state != want {
		return fmt.Errorf("%w: %s requires %s, session is %s", ErrInvalidState, op, want, s.state)
	}
	return nil
}

func (s *Session) projectID() string {
	for _, n := range s.trail {
		if n.Kind == dm.KindProject {
			return n.ID
		}
	}
	return ""
}

// pick resolves approxName over nodes. Empty listings and unconfident matches
// are ErrResolutionNotFound for the level.
func (s *Session) pick(ctx context.Context, level string, nodes []dm.Node, approxName string) (dm.Node, error) {
	if len(nodes) == 0 {
		return dm.Node{}, fmt.Errorf("%w: %s %q: listing is empty", apperr.ErrResolutionNotFound, level, approxName)
	}
	cands := make([]fuzzy.Candidate, len(nodes))
	for i, n := range nodes {
		cands[i] = fuzzy.Candidate{ID: n.ID, Name: n.Name}
	}
	c, err := fuzzy.Pick(ctx, s.resolver, cands, approxName)
	if errors.Is(err, apperr.ErrNoConfidentMatch) {
		s.logger.Debug("no match", zap.String("level", level), zap.String("query", approxName), zap.Error(err))
		return dm.Node{}, fmt.Errorf("%w: %s %q: %w", apperr.ErrResolutionNotFound, level, approxName, err)
	}
	if err != nil {
		return dm.Node{}, err
	}
	for _, n := range nodes {
		if n.ID == c.ID {
			return n, nil
		}
	}
	return dm.Node{}, fmt.Errorf("%w: %s %q", apperr.ErrResolutionNotFound, level, approxName)
}
