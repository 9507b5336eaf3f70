package repository

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/pr-poehali-dev/tour-booking-platform/internal/model"
)

// UploadRepository загружает изображения на CDN через удалённую функцию.
type UploadRepository struct {
	remote *remote
}

func NewUploadRepository(c *Client, endpoint string) *UploadRepository {
	return &UploadRepository{remote: c.remote("upload", endpoint)}
}

// UploadImage отправляет файл в виде data URL, как это делает браузерный FileReader.
func (r *UploadRepository) UploadImage(ctx context.Context, filename, contentType string, data []byte) (*model.UploadResponse, error) {
	var resp model.UploadResponse
	err := r.remote.call(ctx, request{
		method: http.MethodPost,
		body: map[string]string{
			"image":    DataURL(contentType, data),
			"filename": filename,
		},
		fallback: "Failed to upload image",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DataURL кодирует содержимое в data URL с base64.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
