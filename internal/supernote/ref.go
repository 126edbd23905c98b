package supernote

import "fmt"

// refKind discriminates the input shapes an ItemRef can hold.
type refKind int

const (
	refRoot refKind = iota
	refID
	refPath
	refEntry
)

// ItemRef identifies a remote file or directory in one of four shapes:
// the root directory, a raw server identifier, a slash-separated path, or
// an already-resolved Entry. The zero value refers to the root.
//
// Operations normalize a ref exactly once at their boundary. Path refs
// cost one listing round trip per path segment; the other shapes cost
// nothing.
type ItemRef struct {
	kind  refKind
	id    int64
	path  string
	entry Entry
}

// Root references the root directory.
func Root() ItemRef {
	return ItemRef{}
}

// ByID references an item by its server-assigned identifier.
func ByID(id int64) ItemRef {
	return ItemRef{kind: refID, id: id}
}

// ByPath references an item by path, resolved against the live remote
// tree at the moment the reference is used.
func ByPath(path string) ItemRef {
	return ItemRef{kind: refPath, path: path}
}

// ByEntry references an already-resolved Entry.
func ByEntry(e Entry) ItemRef {
	return ItemRef{kind: refEntry, entry: e}
}

// String renders the ref for log output.
func (r ItemRef) String() string {
	switch r.kind {
	case refRoot:
		return "/"
	case refID:
		return fmt.Sprintf("id:%d", r.id)
	case refPath:
		return r.path
	case refEntry:
		return fmt.Sprintf("%s (id:%d)", r.entry.FileName, r.entry.ID)
	default:
		return "invalid"
	}
}
