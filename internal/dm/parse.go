package dm

func hubNodes(l listing) []Node {
	out := make([]Node, 0, len(l.Data))
	for _, r := range l.Data {
		out = append(out, Node{Kind: KindHub, ID: r.ID, Name: r.displayName()})
	}
	return out
}

func projectNodes(l listing, hubID string) []Node {
	out := make([]Node, 0, len(l.Data))
	for _, r := range l.Data {
		out = append(out, Node{
			Kind:         KindProject,
			ID:           r.ID,
			Name:         r.displayName(),
			ParentID:     hubID,
			RootFolderID: relID(r.Relationships.RootFolder),
		})
	}
	return out
}

// contentNodes turns a folder contents page into folder and file nodes.
// A file takes its storage link from its tip version in included, then from
// any included version pointing back at it, then from the item itself.
func contentNodes(l listing, folderID string) []Node {
	byID := map[string]resource{}
	byItem := map[string]resource{}
	for _, v := range l.Included {
		if v.Type != "versions" {
			continue
		}
		byID[v.ID] = v
		if item := relID(v.Relationships.Item); item != "" {
			if _, dup := byItem[item]; !dup {
				byItem[item] = v
			}
		}
	}

	out := make([]Node, 0, len(l.Data))
	for _, r := range l.Data {
		switch r.Type {
		case "folders":
			out = append(out, Node{Kind: KindFolder, ID: r.ID, Name: r.displayName(), ParentID: folderID})
		case "items":
			n := Node{Kind: KindFile, ID: r.ID, Name: r.displayName(), ParentID: folderID}
			v, ok := byID[relID(r.Relationships.Tip)]
			if !ok {
				v, ok = byItem[r.ID]
			}
			if ok {
				n.StorageLink = v.storageLink()
				n.FileName = v.Attributes.Extension.Data.SourceFileName
				if n.FileName == "" {
					n.FileName = v.Attributes.Name
				}
			}
			if n.StorageLink == "" {
				n.StorageLink = r.storageLink()
			}
			if n.FileName == "" {
				n.FileName = n.Name
			}
			out = append(out, n)
		}
	}
	return out
}
