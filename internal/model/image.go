package model

type ImageUpload struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}
