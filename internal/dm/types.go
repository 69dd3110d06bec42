package dm

// Kind is the type of a hierarchy node.
type Kind string

const (
	KindHub     Kind = "hub"
	KindProject Kind = "project"
	KindFolder  Kind = "folder"
	KindFile    Kind = "file"
)

// Node is one entry of a repository listing.
type Node struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`

	// ParentID is set for folders and files.
	ParentID string `json:"parent_id,omitempty"`
	// RootFolderID is the entry folder of a project.
	RootFolderID string `json:"root_folder_id,omitempty"`
	// StorageLink is the locator link of a file's current version.
	StorageLink string `json:"storage_link,omitempty"`
	// FileName is the uploaded file name of a file's current version.
	FileName string `json:"file_name,omitempty"`
}

// jsonapi wire types, reduced to the fields the client reads.

type resourceID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type relationship struct {
	Data *resourceID `json:"data"`
}

type storageRelationship struct {
	Data *resourceID `json:"data"`
	Meta struct {
		Link struct {
			Href string `json:"href"`
		} `json:"link"`
	} `json:"meta"`
}

type resource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
		Extension   struct {
			Data struct {
				SourceFileName string `json:"sourceFileName"`
			} `json:"data"`
		} `json:"extension"`
	} `json:"attributes"`
	Relationships struct {
		RootFolder *relationship        `json:"rootFolder"`
		Tip        *relationship        `json:"tip"`
		Item       *relationship        `json:"item"`
		Storage    *storageRelationship `json:"storage"`
	} `json:"relationships"`
}

func (r resource) displayName() string {
	if r.Attributes.DisplayName != "" {
		return r.Attributes.DisplayName
	}
	return r.Attributes.Name
}

func (r resource) storageLink() string {
	if r.Relationships.Storage == nil {
		return ""
	}
	return r.Relationships.Storage.Meta.Link.Href
}

func relID(rel *relationship) string {
	if rel == nil || rel.Data == nil {
		return ""
	}
	return rel.Data.ID
}

type listing struct {
	Data     []resource `json:"data"`
	Included []resource `json:"included"`
	Links    struct {
		Next *struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"links"`
}

func (l listing) nextHref() string {
	if l.Links.Next == nil {
		return ""
	}
	return l.Links.Next.Href
}

type signedDownload struct {
	URL string `json:"url"`
}
