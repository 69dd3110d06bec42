package index

// Record is one persisted file-name embedding.
type Record struct {
	Name   string    `json:"file_name"`
	Vector []float32 `json:"file_name_embedding"`
	Href   string    `json:"href"`
}

// Manifest describes how an index file was produced. It is stored next to
// the index as <path>.manifest.json and is optional on load.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
	Count        int    `json:"count"`
}

// Index is a loaded, read-only embedding index. It is safe for concurrent use.
type Index struct {
	path     string
	records  []Record
	dim      int
	manifest *Manifest
}

// Len returns the number of records.
func (x *Index) Len() int { return len(x.records) }

// Dim returns the dimensionality shared by every vector.
func (x *Index) Dim() int { return x.dim }

// Path returns the file the index was loaded from, if any.
func (x *Index) Path() string { return x.path }

// At returns the i-th record in insertion order. The returned vector must not be modified.
func (x *Index) At(i int) Record { return x.records[i] }

// Manifest returns the sidecar manifest when one was present.
func (x *Index) Manifest() (Manifest, bool) {
	if x.manifest == nil {
		return Manifest{}, false
	}
	return *x.manifest, true
}
