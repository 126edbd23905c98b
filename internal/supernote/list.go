package supernote

import "context"

// Fixed listing query: one page of up to 100 children, newest first.
// The design does not paginate; directories with more than 100 children
// are truncated at the page boundary.
const (
	listPageNo   = 1
	listPageSize = 100
	listOrder    = "time"
	listSequence = "desc"
)

type fileListRequest struct {
	DirectoryID int64  `json:"directoryId"`
	PageNo      int    `json:"pageNo"`
	PageSize    int    `json:"pageSize"`
	Order       string `json:"order"`
	Sequence    string `json:"sequence"`
}

type fileListResponse struct {
	UserFileVOList []fileVO `json:"userFileVOList"`
}

// ListDirectory returns the immediate children of the given directory in
// the service's listing order, newest first. It satisfies Lister.
func (c *Client) ListDirectory(ctx context.Context, directoryID int64) ([]Entry, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	payload := fileListRequest{
		DirectoryID: directoryID,
		PageNo:      listPageNo,
		PageSize:    listPageSize,
		Order:       listOrder,
		Sequence:    listSequence,
	}

	var out fileListResponse
	if err := c.postJSON(ctx, "file list", endpointFileList, payload, &out); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(out.UserFileVOList))
	for _, vo := range out.UserFileVOList {
		entries = append(entries, vo.toEntry())
	}

	c.logger.Debug("listed directory",
		"directory_id", directoryID,
		"entries", len(entries),
	)

	return entries, nil
}

// List returns the immediate children of the referenced directory.
func (c *Client) List(ctx context.Context, ref ItemRef) ([]Entry, error) {
	directoryID, err := c.refDirectoryID(ctx, ref)
	if err != nil {
		return nil, err
	}

	return c.ListDirectory(ctx, directoryID)
}
