package doc

// PartMeta is the UI-facing record of one editable part in part mode:
// the chain root node plus display state. The session keeps these in
// creation order and snapshots them alongside the document for
// undo/redo.
type PartMeta struct {
	Root    NodeID `json:"root"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
}

// CopyParts returns an independent copy of a part metadata slice.
func CopyParts(parts []PartMeta) []PartMeta {
	if parts == nil {
		return nil
	}
	out := make([]PartMeta, len(parts))
	copy(out, parts)
	return out
}
