package supernote

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntryKind discriminates files from directories. Every Entry carries
// exactly one kind, set when the wire item is decoded.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
)

func (k EntryKind) String() string {
	if k == KindDirectory {
		return "directory"
	}

	return "file"
}

// RootID is the well-known identifier of the root directory. The service
// has no addressable root item; 0 is accepted as a parent id everywhere.
const RootID int64 = 0

// Entry is one item of a remote directory listing. Entries are built
// fresh from every listing response and are never cached; a resolved
// Entry is only guaranteed valid for the duration of the caller's
// operation, since another client can rename or delete it remotely.
type Entry struct {
	Kind        EntryKind
	ID          int64
	DirectoryID int64 // parent directory id; 0 means root
	FileName    string
	Size        int64  // bytes, zero for directories
	MD5         string // content hash, empty for directories
	UpdateTime  time.Time
}

// rootEntry is the synthetic Entry representing the root directory.
func rootEntry() Entry {
	return Entry{Kind: KindDirectory, ID: RootID, FileName: "/"}
}

// Wire values of the isFolder discriminator.
const (
	folderFlagYes = "Y"
	folderFlagNo  = "N"
)

// wireID decodes a server identifier. The service serializes ids
// inconsistently, as bare numbers on some endpoints and quoted strings on
// others, so both forms are accepted.
type wireID int64

func (w *wireID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*w = 0

		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing id %q: %w", s, err)
	}

	*w = wireID(n)

	return nil
}

// fileVO is the wire shape of one item in a userFileVOList.
type fileVO struct {
	ID          wireID `json:"id"`
	DirectoryID wireID `json:"directoryId"`
	FileName    string `json:"fileName"`
	IsFolder    string `json:"isFolder"`
	Size        int64  `json:"size"`
	MD5         string `json:"md5"`
	UpdateTime  int64  `json:"updateTime"` // epoch milliseconds, 0 when absent
}

// toEntry converts a wire item to a normalized Entry.
func (v fileVO) toEntry() Entry {
	kind := KindFile
	if v.IsFolder == folderFlagYes {
		kind = KindDirectory
	}

	e := Entry{
		Kind:        kind,
		ID:          int64(v.ID),
		DirectoryID: int64(v.DirectoryID),
		FileName:    v.FileName,
		Size:        v.Size,
		MD5:         v.MD5,
	}

	if v.UpdateTime > 0 {
		e.UpdateTime = time.UnixMilli(v.UpdateTime)
	}

	return e
}
