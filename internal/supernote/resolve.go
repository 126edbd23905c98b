package supernote

import (
	"context"
	"fmt"
	"strings"
)

// Lister fetches the immediate children of a directory. It is the single
// remote dependency of path resolution; Resolver takes the interface so
// the walk can be exercised against a fake in tests.
type Lister interface {
	ListDirectory(ctx context.Context, directoryID int64) ([]Entry, error)
}

// Resolver translates slash-separated paths into remote entries by
// walking directory listings one segment at a time. The service has no
// server-side path lookup, so a path of depth n costs n listing calls.
//
// Nothing is cached between walks or between segments: every resolution
// sees the live tree, and a concurrent rename or delete by another
// client can fail a walk partway with ErrNotFound even though the full
// path existed moments earlier. That is accepted behavior against a
// non-transactional remote directory.
type Resolver struct {
	lister Lister
}

// NewResolver returns a Resolver that lists directories via l.
func NewResolver(l Lister) *Resolver {
	return &Resolver{lister: l}
}

// Resolve translates path into the Entry it names.
//
// The final segment is classified by a filename heuristic: it names a
// file if and only if it contains a dot. The heuristic is purely
// syntactic, so a directory named "archive.old" is misclassified as a
// file. Known limitation: the service offers no way to ask "file or
// directory?" without listing the parent, and the listing happens after
// classification.
//
// Matching is exact and case-sensitive. The service permits duplicate
// sibling names; the first match in listing order (newest first) wins,
// making resolution of duplicates order-dependent.
func (r *Resolver) Resolve(ctx context.Context, path string) (Entry, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		// The service has no addressable root entry, so "/" materializes
		// as a synthetic Directory with the well-known id 0.
		return rootEntry(), nil
	}

	dirSegments := segments
	fileSegment := ""

	if looksLikeFile(segments[len(segments)-1]) {
		dirSegments = segments[:len(segments)-1]
		fileSegment = segments[len(segments)-1]
	}

	cursor := rootEntry()

	for i, segment := range dirSegments {
		children, err := r.lister.ListDirectory(ctx, cursor.ID)
		if err != nil {
			return Entry{}, err
		}

		next, ok := findDirectory(children, segment)
		if !ok {
			return Entry{}, &NotFoundError{
				Segment: segment,
				Prefix:  "/" + strings.Join(dirSegments[:i+1], "/"),
				Kind:    KindDirectory,
			}
		}

		cursor = next
	}

	if fileSegment == "" {
		return cursor, nil
	}

	children, err := r.lister.ListDirectory(ctx, cursor.ID)
	if err != nil {
		return Entry{}, err
	}

	// The final segment may match an entry of either kind; only the name
	// has to agree.
	for _, child := range children {
		if child.FileName == fileSegment {
			return child, nil
		}
	}

	return Entry{}, &NotFoundError{
		Segment: fileSegment,
		Prefix:  "/" + strings.Join(dirSegments, "/"),
		Kind:    KindFile,
	}
}

// splitPath breaks a path into segments, discarding the leading
// separator, trailing separators, and empty segments from doubled
// slashes. An empty result denotes the root.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]string, 0, len(parts))

	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}

	return segments
}

// looksLikeFile reports whether a final path segment is classified as a
// file name. Purely syntactic: a dot anywhere in the segment.
func looksLikeFile(segment string) bool {
	return strings.Contains(segment, ".")
}

// findDirectory returns the first Directory entry named exactly name, in
// listing order.
func findDirectory(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Kind == KindDirectory && e.FileName == name {
			return e, true
		}
	}

	return Entry{}, false
}

// Resolve translates a path into the Entry it names, walking the live
// remote tree via the client's own lister.
func (c *Client) Resolve(ctx context.Context, path string) (Entry, error) {
	return NewResolver(c).Resolve(ctx, path)
}

// resolveRef normalizes a ref to a resolved Entry. Root and entry refs
// return without network traffic; path refs walk the tree. Raw id refs
// carry no entry data and cannot be materialized without guessing a
// parent to list, so they are rejected; use them only with operations
// that need nothing but the id.
func (c *Client) resolveRef(ctx context.Context, ref ItemRef) (Entry, error) {
	switch ref.kind {
	case refRoot:
		return rootEntry(), nil
	case refEntry:
		return ref.entry, nil
	case refPath:
		return NewResolver(c).Resolve(ctx, ref.path)
	case refID:
		return Entry{}, fmt.Errorf("%w: id ref %d cannot resolve to an entry", ErrInvalidArgument, ref.id)
	default:
		return Entry{}, fmt.Errorf("%w: unknown ref shape", ErrInvalidArgument)
	}
}

// refDirectoryID normalizes a ref to a bare identifier: root and id refs
// pass through, entry refs yield their id, path refs resolve first. This
// is the funnel for operations that only need a directory id.
func (c *Client) refDirectoryID(ctx context.Context, ref ItemRef) (int64, error) {
	switch ref.kind {
	case refRoot:
		return RootID, nil
	case refID:
		return ref.id, nil
	case refEntry:
		return ref.entry.ID, nil
	case refPath:
		entry, err := NewResolver(c).Resolve(ctx, ref.path)
		if err != nil {
			return 0, err
		}

		return entry.ID, nil
	default:
		return 0, fmt.Errorf("%w: unknown ref shape", ErrInvalidArgument)
	}
}
