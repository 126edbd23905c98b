package supernote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type downloadURLRequest struct {
	ID   int64 `json:"id"`
	Type int   `json:"type"`
}

type downloadURLResponse struct {
	URL string `json:"url"`
}

type pdfURLRequest struct {
	ID         int64 `json:"id"`
	PageNoList []int `json:"pageNoList,omitempty"`
}

type pdfURLResponse struct {
	URL string `json:"url"`
}

type pngURLRequest struct {
	ID int64 `json:"id"`
}

type pngPageVO struct {
	PageNo int    `json:"pageNo"`
	URL    string `json:"url"`
}

type pngURLResponse struct {
	PNGPageVOList []pngPageVO `json:"pngPageVOList"`
}

// Download fetches the file ref names and writes it into destDir under
// its remote name. It returns the local path written.
func (c *Client) Download(ctx context.Context, ref ItemRef, destDir string) (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}

	entry, err := c.resolveRef(ctx, ref)
	if err != nil {
		return "", err
	}

	if entry.Kind == KindDirectory {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, entry.FileName)
	}

	var out downloadURLResponse
	if err := c.postJSON(ctx, "download url", endpointDownloadURL, downloadURLRequest{ID: entry.ID}, &out); err != nil {
		return "", err
	}

	if out.URL == "" {
		return "", &APIError{Op: "download url", Message: "no url in response"}
	}

	localPath := filepath.Join(destDir, entry.FileName)
	if err := c.fetchToFile(ctx, out.URL, localPath); err != nil {
		return "", err
	}

	return localPath, nil
}

// DownloadPDF converts the referenced note to PDF on the service side and
// writes the result into destDir, named after the note with its extension
// swapped for .pdf. A nil or empty pages slice converts every page.
func (c *Client) DownloadPDF(ctx context.Context, ref ItemRef, destDir string, pages []int) (string, error) {
	if err := c.requireAuth(); err != nil {
		return "", err
	}

	entry, err := c.resolveRef(ctx, ref)
	if err != nil {
		return "", err
	}

	if entry.Kind == KindDirectory {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, entry.FileName)
	}

	var out pdfURLResponse
	if err := c.postJSON(ctx, "pdf url", endpointPDFURL, pdfURLRequest{ID: entry.ID, PageNoList: pages}, &out); err != nil {
		return "", err
	}

	if out.URL == "" {
		return "", &APIError{Op: "pdf url", Message: "no url in response"}
	}

	localPath := filepath.Join(destDir, replaceExt(entry.FileName, ".pdf"))
	if err := c.fetchToFile(ctx, out.URL, localPath); err != nil {
		return "", err
	}

	return localPath, nil
}

// DownloadPNG converts the referenced note to one PNG per page and writes
// them into destDir as <name>_<pageNo>.png. A nil or empty pages slice
// fetches every page the service rendered; otherwise only the requested
// page numbers are fetched, and an unknown page number fails with
// ErrInvalidArgument before anything is written. Pages are fetched
// sequentially.
func (c *Client) DownloadPNG(ctx context.Context, ref ItemRef, destDir string, pages []int) ([]string, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}

	entry, err := c.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	if entry.Kind == KindDirectory {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, entry.FileName)
	}

	var out pngURLResponse
	if err := c.postJSON(ctx, "png url", endpointPNGURL, pngURLRequest{ID: entry.ID}, &out); err != nil {
		return nil, err
	}

	wanted := out.PNGPageVOList

	if len(pages) > 0 {
		byPage := make(map[int]string, len(out.PNGPageVOList))
		for _, vo := range out.PNGPageVOList {
			byPage[vo.PageNo] = vo.URL
		}

		wanted = make([]pngPageVO, 0, len(pages))

		for _, page := range pages {
			url, ok := byPage[page]
			if !ok {
				return nil, fmt.Errorf("%w: page %d not available", ErrInvalidArgument, page)
			}

			wanted = append(wanted, pngPageVO{PageNo: page, URL: url})
		}
	}

	stem := strings.TrimSuffix(entry.FileName, filepath.Ext(entry.FileName))
	paths := make([]string, 0, len(wanted))

	for _, vo := range wanted {
		localPath := filepath.Join(destDir, fmt.Sprintf("%s_%d.png", stem, vo.PageNo))
		if err := c.fetchToFile(ctx, vo.URL, localPath); err != nil {
			return nil, err
		}

		paths = append(paths, localPath)
	}

	return paths, nil
}

// fetchToFile streams a signed temporary URL to a local file. The URL
// embeds its own authorization, so session headers are not attached, and
// the URL is never logged. A partially written file is removed on
// failure.
func (c *Client) fetchToFile(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("supernote: building download request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("supernote: creating %s: %w", localPath, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(localPath)

		return &TransportError{Err: err}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("supernote: closing %s: %w", localPath, err)
	}

	c.logger.Debug("wrote file", "path", localPath)

	return nil
}

// replaceExt swaps the extension of name for ext (given with its dot).
// A name without an extension gets ext appended.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
