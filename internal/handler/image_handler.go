package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"blog-api/internal/model"
	"blog-api/internal/service"
	"blog-api/pkg/apierror"
)

const imageFormField = "image"

// multipart framing allowance on top of the file size limit
const multipartOverhead = 64 << 10

type ImageHandler struct {
	service *service.ImageService
}

func NewImageHandler(service *service.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// Upload accepts exactly one multipart file part named "image".
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxSize()+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.BadRequest(apierror.CodeBadRequest, "invalid multipart body", ""))
		return
	}

	var uploaded *model.ImageUpload
	for {
		part, nextErr := reader.NextPart()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			writeError(w, uploadError(nextErr))
			return
		}

		if part.FormName() != imageFormField || strings.TrimSpace(part.FileName()) == "" {
			_ = part.Close()
			continue
		}
		if uploaded != nil {
			_ = part.Close()
			writeError(w, apierror.BadRequest(apierror.CodeBadRequest, "only one image can be uploaded at a time", imageFormField))
			return
		}

		result, uploadErr := h.service.UploadTemp(r.Context(), part.FileName(), part)
		_ = part.Close()
		if uploadErr != nil {
			writeError(w, uploadError(uploadErr))
			return
		}
		uploaded = &result
	}

	if uploaded == nil {
		writeError(w, apierror.BadRequest(apierror.CodeBadRequest, "multipart field 'image' is required", imageFormField))
		return
	}

	writeSuccess(w, http.StatusCreated, uploaded, nil)
}

func uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apierror.New(apierror.CodePayloadTooLarge, "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	return apierror.BadRequest(apierror.CodeBadRequest, "invalid multipart stream", err.Error())
}
