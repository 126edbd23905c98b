package supernote

import (
	"context"
	"fmt"
	"strings"
)

type createFolderRequest struct {
	DirectoryID int64  `json:"directoryId"`
	FileName    string `json:"fileName"`
}

type deleteRequest struct {
	DirectoryID int64   `json:"directoryId"`
	IDList      []int64 `json:"idList"`
}

// Mkdir creates a directory named name under the referenced parent.
func (c *Client) Mkdir(ctx context.Context, name string, parent ItemRef) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: invalid directory name %q", ErrInvalidArgument, name)
	}

	directoryID, err := c.refDirectoryID(ctx, parent)
	if err != nil {
		return err
	}

	payload := createFolderRequest{DirectoryID: directoryID, FileName: name}
	if err := c.postJSON(ctx, "create directory", endpointCreateFolder, payload, nil); err != nil {
		return err
	}

	c.logger.Debug("created directory", "name", name, "directory_id", directoryID)

	return nil
}

// Delete removes the referenced items in one batch call. The delete
// endpoint is directory-scoped, so every item must share one parent
// directory; a batch spanning parents fails with ErrInvalidArgument
// before any request is issued, leaving no partial effect. Resolution
// failures likewise abort the whole batch.
func (c *Client) Delete(ctx context.Context, refs ...ItemRef) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	if len(refs) == 0 {
		return fmt.Errorf("%w: empty delete batch", ErrInvalidArgument)
	}

	entries := make([]Entry, 0, len(refs))

	for _, ref := range refs {
		entry, err := c.resolveRef(ctx, ref)
		if err != nil {
			return err
		}

		entries = append(entries, entry)
	}

	directoryID := entries[0].DirectoryID
	ids := make([]int64, 0, len(entries))

	for _, entry := range entries {
		if entry.DirectoryID != directoryID {
			return fmt.Errorf("%w: %s is in a different directory", ErrInvalidArgument, entry.FileName)
		}

		ids = append(ids, entry.ID)
	}

	payload := deleteRequest{DirectoryID: directoryID, IDList: ids}
	if err := c.postJSON(ctx, "delete", endpointDelete, payload, nil); err != nil {
		return err
	}

	c.logger.Debug("deleted items", "directory_id", directoryID, "count", len(ids))

	return nil
}
