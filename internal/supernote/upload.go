package supernote

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // the upload protocol identifies content by MD5
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// unsignedPayload is the x-amz-content-sha256 value for uploads whose
// body is authorized by header signature rather than content hash.
const unsignedPayload = "UNSIGNED-PAYLOAD"

type uploadApplyRequest struct {
	DirectoryID int64  `json:"directoryId"`
	FileName    string `json:"fileName"`
	MD5         string `json:"md5"`
	Size        int64  `json:"size"`
}

// uploadApplyResponse carries the signed object-store target: the PUT
// url plus the authorization headers the store expects verbatim.
type uploadApplyResponse struct {
	URL             string `json:"url"`
	S3Authorization string `json:"s3Authorization"`
	XamzDate        string `json:"xamzDate"`
}

type uploadFinishRequest struct {
	DirectoryID int64  `json:"directoryId"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	InnerName   string `json:"innerName"`
	MD5         string `json:"md5"`
}

// Upload stores a local file under the referenced parent directory in
// three steps: an apply call registers name, MD5, and size and returns a
// signed object-store URL; the bytes are PUT directly to that URL; a
// finish call commits the entry. The remote name is the local base name,
// NFC-normalized so that files created on macOS (which decomposes
// filenames) match later path lookups.
func (c *Client) Upload(ctx context.Context, localPath string, parent ItemRef) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	directoryID, err := c.refDirectoryID(ctx, parent)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("supernote: reading %s: %w", localPath, err)
	}

	sum := md5.Sum(data) //nolint:gosec // dictated by the upload protocol
	digest := hex.EncodeToString(sum[:])
	name := norm.NFC.String(filepath.Base(localPath))
	size := int64(len(data))

	apply := uploadApplyRequest{
		DirectoryID: directoryID,
		FileName:    name,
		MD5:         digest,
		Size:        size,
	}

	var target uploadApplyResponse
	if err := c.postJSON(ctx, "upload apply", endpointUploadApply, apply, &target); err != nil {
		return err
	}

	if target.URL == "" || target.S3Authorization == "" {
		return &APIError{Op: "upload apply", Message: "incomplete upload grant"}
	}

	innerName, err := objectName(target.URL)
	if err != nil {
		return err
	}

	if err := c.putObject(ctx, target, data); err != nil {
		return err
	}

	finish := uploadFinishRequest{
		DirectoryID: directoryID,
		FileName:    name,
		FileSize:    size,
		InnerName:   innerName,
		MD5:         digest,
	}

	if err := c.postJSON(ctx, "upload finish", endpointUploadFinish, finish, nil); err != nil {
		return err
	}

	c.logger.Debug("uploaded file",
		"name", name,
		"directory_id", directoryID,
		"size", size,
	)

	return nil
}

// putObject sends the file bytes to the signed object-store URL with the
// authorization headers from the apply grant. The URL is never logged.
func (c *Client) putObject(ctx context.Context, target uploadApplyResponse, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("supernote: building upload request: %w", err)
	}

	req.Header.Set("Authorization", target.S3Authorization)
	req.Header.Set("x-amz-date", target.XamzDate)
	req.Header.Set("x-amz-content-sha256", unsignedPayload)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	return nil
}

// objectName extracts the storage-internal name from the signed upload
// URL. The finish call reports this name back to the service.
func objectName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &APIError{Op: "upload apply", Message: fmt.Sprintf("unusable upload url: %v", err)}
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", &APIError{Op: "upload apply", Message: "unusable upload url: empty object path"}
	}

	return name, nil
}
