package model

// UploadResponse представляет результат загрузки изображения на CDN.
type UploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Hash     string `json:"hash,omitempty"`
}
