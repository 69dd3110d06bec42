// Package dmtest provides an in-process fake of the document repository API.
package dmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// File is a stored file. Its storage link points at Container/Object.
type File struct {
	ID        string
	Name      string
	Container string
	Object    string
}

// Folder is a folder with nested folders and files.
type Folder struct {
	ID      string
	Name    string
	Folders []Folder
	Files   []File
}

// Project is a project with its root folder.
type Project struct {
	ID   string
	Name string
	Root Folder
}

// Hub is a hub with its projects.
type Hub struct {
	ID       string
	Name     string
	Projects []Project
}

// Repository is a fake repository served over HTTP.
type Repository struct {
	Token string
	Hubs  []Hub

	// PageSize splits listings into pages linked by links.next when > 0.
	PageSize int
	// OmitSignedURL makes the signing endpoint answer 200 without a url.
	OmitSignedURL bool
	// FailStatus, when non-zero, is returned by every endpoint.
	FailStatus int

	mu       sync.Mutex
	requests []string
}

// Requests returns the request paths served so far.
func (f *Repository) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Scenario returns the fixture used across tests: hub "Sunway Velocity" (h1)
// → project p1 → root folder → "Drawings" (f1) → site_plan.pdf.
func Scenario() *Repository {
	return &Repository{
		Token: "tok",
		Hubs: []Hub{
			{ID: "h1", Name: "Sunway Velocity", Projects: []Project{
				{ID: "p1", Name: "Velocity Tower", Root: Folder{
					ID:   "root1",
					Name: "Project Files",
					Folders: []Folder{
						{ID: "f1", Name: "Drawings", Files: []File{
							{ID: "i1", Name: "site_plan.pdf", Container: "wip.dm.prod", Object: "folder/site_plan.pdf"},
							{ID: "i2", Name: "elevations.dwg", Container: "wip.dm.prod", Object: "folder/elevations.dwg"},
						}},
						{ID: "f2", Name: "Finance", Files: []File{
							{ID: "i3", Name: "budget.xlsx", Container: "wip.dm.prod", Object: "fin/budget 2024.xlsx"},
						}},
					},
				}},
				{ID: "p2", Name: "Sunway Pyramid", Root: Folder{ID: "root2", Name: "Project Files"}},
			}},
			{ID: "h2", Name: "Gamuda Land"},
		},
	}
}

// NewServer starts f on an httptest server closed at test cleanup.
func NewServer(t testing.TB, f *Repository) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// Handler returns the chi router serving f.
func (f *Repository) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record, f.auth)
	r.Get("/project/v1/hubs", f.listHubs)
	r.Get("/project/v1/hubs/{hub}/projects", f.listProjects)
	r.Get("/data/v1/projects/{project}/folders/{folder}/contents", f.listContents)
	r.Get("/oss/v2/buckets/{bucket}/objects/*", f.signedDownload)
	return r
}

func (f *Repository) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *Repository) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.FailStatus != 0 {
			writeJSON(w, f.FailStatus, map[string]any{"developerMessage": "forced failure"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+f.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"developerMessage": "The token is not valid"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *Repository) listHubs(w http.ResponseWriter, r *http.Request) {
	data := make([]any, 0, len(f.Hubs))
	for _, h := range f.Hubs {
		data = append(data, map[string]any{
			"type":       "hubs",
			"id":         h.ID,
			"attributes": map[string]any{"name": h.Name},
		})
	}
	f.writePage(w, r, data, nil)
}

func (f *Repository) listProjects(w http.ResponseWriter, r *http.Request) {
	hub, ok := f.hub(chi.URLParam(r, "hub"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"developerMessage": "hub not found"})
		return
	}
	data := make([]any, 0, len(hub.Projects))
	for _, p := range hub.Projects {
		data = append(data, map[string]any{
			"type":       "projects",
			"id":         p.ID,
			"attributes": map[string]any{"name": p.Name},
			"relationships": map[string]any{
				"rootFolder": map[string]any{"data": map[string]any{"type": "folders", "id": p.Root.ID}},
			},
		})
	}
	f.writePage(w, r, data, nil)
}

func (f *Repository) listContents(w http.ResponseWriter, r *http.Request) {
	folder, ok := f.folder(chi.URLParam(r, "project"), chi.URLParam(r, "folder"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"developerMessage": "folder not found"})
		return
	}
	base := "http://" + r.Host
	var data, included []any
	for _, sub := range folder.Folders {
		data = append(data, map[string]any{
			"type":       "folders",
			"id":         sub.ID,
			"attributes": map[string]any{"name": sub.Name, "displayName": sub.Name},
		})
	}
	for _, file := range folder.Files {
		versionID := file.ID + "?version=1"
		data = append(data, map[string]any{
			"type":       "items",
			"id":         file.ID,
			"attributes": map[string]any{"displayName": file.Name},
			"relationships": map[string]any{
				"tip": map[string]any{"data": map[string]any{"type": "versions", "id": versionID}},
			},
		})
		link := base + "/oss/v2/buckets/" + url.PathEscape(file.Container) + "/objects/" + url.PathEscape(file.Object)
		included = append(included, map[string]any{
			"type": "versions",
			"id":   versionID,
			"attributes": map[string]any{
				"name":      file.Name,
				"extension": map[string]any{"data": map[string]any{"sourceFileName": file.Name}},
			},
			"relationships": map[string]any{
				"item":    map[string]any{"data": map[string]any{"type": "items", "id": file.ID}},
				"storage": map[string]any{"meta": map[string]any{"link": map[string]any{"href": link}}},
			},
		})
	}
	f.writePage(w, r, data, included)
}

func (f *Repository) signedDownload(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutSuffix(chi.URLParam(r, "*"), "/signeds3download")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"developerMessage": "unknown operation"})
		return
	}
	bucket, err1 := url.PathUnescape(chi.URLParam(r, "bucket"))
	object, err2 := url.PathUnescape(rest)
	if err1 != nil || err2 != nil || !f.hasObject(bucket, object) {
		writeJSON(w, http.StatusNotFound, map[string]any{"reason": "Object not found"})
		return
	}
	if f.OmitSignedURL {
		writeJSON(w, http.StatusOK, map[string]any{"status": "complete"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "complete",
		"url":    "https://s3.example.test/" + bucket + "/" + url.PathEscape(object) + "?X-Amz-Signature=fake",
	})
}

// writePage writes data, paginated when PageSize is set. Included resources
// are sent with every page.
func (f *Repository) writePage(w http.ResponseWriter, r *http.Request, data, included []any) {
	if data == nil {
		data = []any{}
	}
	body := map[string]any{"jsonapi": map[string]any{"version": "1.0"}}
	if f.PageSize <= 0 {
		body["data"] = data
		if included != nil {
			body["included"] = included
		}
		writeJSON(w, http.StatusOK, body)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page[number]"))
	start := min(page*f.PageSize, len(data))
	end := min(start+f.PageSize, len(data))
	body["data"] = data[start:end]
	if included != nil {
		body["included"] = included
	}
	if end < len(data) {
		next := *r.URL
		q := next.Query()
		q.Set("page[number]", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		body["links"] = map[string]any{"next": map[string]any{"href": "http://" + r.Host + next.RequestURI()}}
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *Repository) hub(id string) (Hub, bool) {
	for _, h := range f.Hubs {
		if h.ID == id {
			return h, true
		}
	}
	return Hub{}, false
}

func (f *Repository) folder(projectID, folderID string) (Folder, bool) {
	for _, h := range f.Hubs {
		for _, p := range h.Projects {
			if p.ID != projectID {
				continue
			}
			return findFolder(p.Root, folderID)
		}
	}
	return Folder{}, false
}

func findFolder(root Folder, id string) (Folder, bool) {
	if root.ID == id {
		return root, true
	}
	for _, sub := range root.Folders {
		if f, ok := findFolder(sub, id); ok {
			return f, true
		}
	}
	return Folder{}, false
}

func (f *Repository) hasObject(bucket, object string) bool {
	var walk func(Folder) bool
	walk = func(d Folder) bool {
		for _, file := range d.Files {
			if file.Container == bucket && file.Object == object {
				return true
			}
		}
		for _, sub := range d.Folders {
			if walk(sub) {
				return true
			}
		}
		return false
	}
	for _, h := range f.Hubs {
		for _, p := range h.Projects {
			if walk(p.Root) {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
