package supernote

import (
	"context"
	"crypto/md5" //nolint:gosec // matching the upload protocol's content hash
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	localPath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(localPath, []byte(content), 0o600))

	return localPath
}

func TestUpload(t *testing.T) {
	content := "note contents"
	sum := md5.Sum([]byte(content)) //nolint:gosec
	wantMD5 := hex.EncodeToString(sum[:])

	var sequence []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file/upload/apply":
			sequence = append(sequence, "apply")

			var req uploadApplyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(5), req.DirectoryID)
			assert.Equal(t, "meeting.note", req.FileName)
			assert.Equal(t, wantMD5, req.MD5)
			assert.Equal(t, int64(len(content)), req.Size)

			fmt.Fprintf(w, `{"success": true, "url": %q,
				"s3Authorization": "AWS4-HMAC-SHA256 Credential=abc",
				"xamzDate": "20240101T000000Z"}`,
				"http://"+r.Host+"/store/inner-1.note?X-Amz-Signature=sig")

		case "/store/inner-1.note":
			sequence = append(sequence, "put")
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "AWS4-HMAC-SHA256 Credential=abc", r.Header.Get("Authorization"))
			assert.Equal(t, "20240101T000000Z", r.Header.Get("x-amz-date"))
			assert.Equal(t, "UNSIGNED-PAYLOAD", r.Header.Get("x-amz-content-sha256"))
			// Session headers stay off the object store.
			assert.Empty(t, r.Header.Get("x-access-token"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, content, string(body))

			w.WriteHeader(http.StatusOK)

		case "/file/upload/finish":
			sequence = append(sequence, "finish")

			var req uploadFinishRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(5), req.DirectoryID)
			assert.Equal(t, "meeting.note", req.FileName)
			assert.Equal(t, int64(len(content)), req.FileSize)
			// The storage-internal name comes from the signed URL's path,
			// query string excluded.
			assert.Equal(t, "inner-1.note", req.InnerName)
			assert.Equal(t, wantMD5, req.MD5)

			fmt.Fprint(w, `{"success": true}`)

		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	localPath := writeTempFile(t, "meeting.note", content)

	err := client.Upload(context.Background(), localPath, ByID(5))
	require.NoError(t, err)
	assert.Equal(t, []string{"apply", "put", "finish"}, sequence)
}

func TestUpload_NormalizesFileName(t *testing.T) {
	// "café.note" in decomposed form, as macOS writes it to disk.
	decomposed := "café.note"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file/upload/apply":
			var req uploadApplyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "café.note", req.FileName)

			fmt.Fprintf(w, `{"success": true, "url": %q,
				"s3Authorization": "sig", "xamzDate": "d"}`,
				"http://"+r.Host+"/store/x.note")

		case "/store/x.note":
			w.WriteHeader(http.StatusOK)

		case "/file/upload/finish":
			var req uploadFinishRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "café.note", req.FileName)

			fmt.Fprint(w, `{"success": true}`)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	localPath := writeTempFile(t, decomposed, "x")

	err := client.Upload(context.Background(), localPath, Root())
	require.NoError(t, err)
}

func TestUpload_ApplyRejected(t *testing.T) {
	var putOrFinish int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/file/upload/apply" {
			fmt.Fprint(w, `{"success": false, "errorMsg": "over quota"}`)
			return
		}

		putOrFinish++
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	localPath := writeTempFile(t, "a.note", "x")

	err := client.Upload(context.Background(), localPath, Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "over quota")
	// The upload stops at the rejected apply.
	assert.Zero(t, putOrFinish)
}

func TestUpload_IncompleteGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success": true, "url": "http://example.invalid/store/x"}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	localPath := writeTempFile(t, "a.note", "x")

	err := client.Upload(context.Background(), localPath, Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "incomplete upload grant")
}

func TestUpload_StoreRejectsPut(t *testing.T) {
	var finishCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/file/upload/apply":
			fmt.Fprintf(w, `{"success": true, "url": %q,
				"s3Authorization": "sig", "xamzDate": "d"}`,
				"http://"+r.Host+"/store/x.note")
		case "/store/x.note":
			w.WriteHeader(http.StatusForbidden)
		case "/file/upload/finish":
			finishCalls++
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	localPath := writeTempFile(t, "a.note", "x")

	err := client.Upload(context.Background(), localPath, Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	// A failed PUT is never committed.
	assert.Zero(t, finishCalls)
}

func TestUpload_MissingLocalFile(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.note"), Root())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, requests)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"plain", "https://store.example.com/bucket/inner-1.note", "inner-1.note", false},
		{"query string", "https://store.example.com/b/inner.note?X-Amz-Signature=abc", "inner.note", false},
		{"no path", "https://store.example.com/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := objectName(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrRemote)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
