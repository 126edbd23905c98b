package supernote

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    wireID
		wantErr bool
	}{
		{"bare number", `{"id": 123}`, 123, false},
		{"quoted number", `{"id": "456"}`, 456, false},
		{"null", `{"id": null}`, 0, false},
		{"empty string", `{"id": ""}`, 0, false},
		{"garbage", `{"id": "abc"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				ID wireID `json:"id"`
			}

			err := json.Unmarshal([]byte(tt.json), &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.ID)
		})
	}
}

func TestFileVO_ToEntry(t *testing.T) {
	t.Run("folder", func(t *testing.T) {
		vo := fileVO{ID: 5, DirectoryID: 0, FileName: "Docs", IsFolder: "Y"}

		entry := vo.toEntry()
		assert.Equal(t, KindDirectory, entry.Kind)
		assert.Equal(t, int64(5), entry.ID)
		assert.Equal(t, RootID, entry.DirectoryID)
		assert.Equal(t, "Docs", entry.FileName)
		assert.True(t, entry.UpdateTime.IsZero())
	})

	t.Run("file", func(t *testing.T) {
		vo := fileVO{
			ID:          42,
			DirectoryID: 5,
			FileName:    "report.pdf",
			IsFolder:    "N",
			Size:        9000,
			MD5:         "abc123",
			UpdateTime:  1700000000000,
		}

		entry := vo.toEntry()
		assert.Equal(t, KindFile, entry.Kind)
		assert.Equal(t, int64(9000), entry.Size)
		assert.Equal(t, "abc123", entry.MD5)
		assert.Equal(t, time.UnixMilli(1700000000000), entry.UpdateTime)
	})
}

func TestEntryKind_String(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "directory", KindDirectory.String())
}
