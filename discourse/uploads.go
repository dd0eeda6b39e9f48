package discourse

import (
	"context"
	"fmt"
)

// Upload types accepted by CreateUpload.
const (
	UploadTypeComposer          = "composer"
	UploadTypeAvatar            = "avatar"
	UploadTypeProfileBackground = "profile_background"
	UploadTypeCardBackground    = "card_background"
	UploadTypeCustomEmoji       = "custom_emoji"
)

// Upload is a stored file.
type Upload struct {
	Entry
	ID               int    `json:"id"`
	URL              string `json:"url"`
	OriginalFilename string `json:"original_filename"`
	Filesize         int64  `json:"filesize"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	ThumbnailWidth   int    `json:"thumbnail_width"`
	ThumbnailHeight  int    `json:"thumbnail_height"`
	Extension        string `json:"extension"`
	ShortURL         string `json:"short_url"`
	ShortPath        string `json:"short_path"`
	HumanFilesize    string `json:"human_filesize"`
	DominantColor    string `json:"dominant_color"`
}

// CreateUpload uploads the file at filename on behalf of userID
func (c *Client) CreateUpload(ctx context.Context, userID int, filename, uploadType string, synchronous bool) (*Upload, error) {
	if uploadType == "" {
		uploadType = UploadTypeComposer
	}
	form, err := FormFromValues(map[string]any{
		"type":        uploadType,
		"user_id":     userID,
		"synchronous": synchronous,
		"files":       []string{filename},
	}, "files[]")
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}

	doc, err := c.PostForm(ctx, "uploads", nil, form)
	if err != nil {
		return nil, err
	}
	return As[Upload](doc)
}

// UploadStream posts stream as the raw body of a request to path
func (c *Client) UploadStream(ctx context.Context, path string, query any, stream *Stream) (*Document, error) {
	return c.Post(ctx, path, query, stream)
}
