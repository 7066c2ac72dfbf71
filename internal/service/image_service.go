package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"path"
	"strings"

	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"blog-api/internal/model"
	"blog-api/internal/storage"
	"blog-api/internal/util"
	"blog-api/pkg/apierror"

	"github.com/google/uuid"
)

const (
	sniffLen                  = 512
	defaultMaxThumbnailPixels = 25_000_000
)

type ImageOptions struct {
	TempFolder         string
	PostsFolder        string
	MaxSize            int64
	ThumbnailSize      int
	// MaxThumbnailPixels caps width*height of images decoded for thumbnails.
	MaxThumbnailPixels int64
}

// ImageService stores uploaded post images. Uploads land in the temp
// folder and are promoted into the posts folder when a post references them.
type ImageService struct {
	store storage.Storage
	opts  ImageOptions
}

func NewImageService(store storage.Storage, opts ImageOptions) *ImageService {
	if strings.TrimSpace(opts.TempFolder) == "" {
		opts.TempFolder = "temp"
	}
	if strings.TrimSpace(opts.PostsFolder) == "" {
		opts.PostsFolder = "posts"
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000000
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 256
	}
	if opts.MaxThumbnailPixels <= 0 {
		opts.MaxThumbnailPixels = defaultMaxThumbnailPixels
	}

	return &ImageService{store: store, opts: opts}
}

func (s *ImageService) MaxSize() int64 {
	return s.opts.MaxSize
}

// UploadTemp writes the image under a fresh <uuid><ext> name in the temp folder.
func (s *ImageService) UploadTemp(ctx context.Context, filename string, src io.Reader) (model.ImageUpload, error) {
	cleanName, err := util.SanitizeFilename(filename)
	if err != nil {
		return model.ImageUpload{}, apierror.BadRequest(apierror.CodeBadRequest, "invalid file name", filename)
	}

	ext, ok := util.ImageExtension(cleanName)
	if !ok {
		return model.ImageUpload{}, apierror.BadRequest(apierror.CodeBadRequest, "only jpg, jpeg and png files can be uploaded", cleanName)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.ImageUpload{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mimeType := util.SniffImageMIME(head)
	if !util.MatchesImageExtension(ext, mimeType) {
		return model.ImageUpload{}, apierror.New(apierror.CodeUnsupportedType, "file content does not match its extension", mimeType, http.StatusUnsupportedMediaType)
	}

	name := uuid.NewString() + ext
	target := s.tempPath(name)

	dst, err := s.store.OpenForWrite(target)
	if err != nil {
		return model.ImageUpload{}, fmt.Errorf("open temp image: %w", err)
	}

	limited := io.LimitReader(io.MultiReader(bytes.NewReader(head), src), s.opts.MaxSize+1)
	written, copyErr := io.Copy(dst, limited)
	closeErr := dst.Close()

	if copyErr == nil && written > s.opts.MaxSize {
		copyErr = apierror.New(apierror.CodePayloadTooLarge, "image exceeds the upload limit", fmt.Sprintf("max %d bytes", s.opts.MaxSize), http.StatusRequestEntityTooLarge)
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil {
		copyErr = ctx.Err()
	}
	if copyErr != nil {
		_ = s.store.Remove(target)
		return model.ImageUpload{}, copyErr
	}

	slog.Debug("image uploaded", "file", name, "size", written, "mime", mimeType)
	return model.ImageUpload{FileName: name, Size: written, MimeType: mimeType}, nil
}

// Promote moves a temp upload into the posts folder and renders its thumbnail.
// The returned name is what a post stores in its image field.
func (s *ImageService) Promote(ctx context.Context, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(fileName)
	if name == "" || path.Base(name) != name {
		return "", apierror.BadRequest(apierror.CodeBadRequest, "invalid image name", fileName)
	}
	if _, ok := util.ImageExtension(name); !ok {
		return "", apierror.BadRequest(apierror.CodeBadRequest, "invalid image name", fileName)
	}

	if _, err := s.store.Stat(s.tempPath(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apierror.BadRequest(apierror.CodeBadRequest, "image does not exist in the temp folder", name)
		}
		return "", err
	}

	if err := s.store.Rename(s.tempPath(name), s.postPath(name)); err != nil {
		return "", err
	}

	if err := s.renderThumbnail(name); err != nil {
		slog.Warn("thumbnail rendering failed", "file", name, "error", err)
	}

	return name, nil
}

// Demote undoes Promote: the image goes back to the temp folder and its
// thumbnail is dropped.
func (s *ImageService) Demote(_ context.Context, fileName string) error {
	name := strings.TrimSpace(fileName)
	if name == "" || path.Base(name) != name {
		return apierror.BadRequest(apierror.CodeBadRequest, "invalid image name", fileName)
	}

	if err := s.store.Rename(s.postPath(name), s.tempPath(name)); err != nil {
		return err
	}

	if err := s.store.Remove(s.thumbPath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("thumbnail removal failed", "file", name, "error", err)
	}

	return nil
}

func (s *ImageService) renderThumbnail(name string) error {
	src, err := s.store.OpenForRead(s.postPath(name))
	if err != nil {
		return err
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > s.opts.MaxThumbnailPixels {
		return fmt.Errorf("image is %dx%d, over the %d pixel thumbnail limit", cfg.Width, cfg.Height, s.opts.MaxThumbnailPixels)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return err
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	dst := scaleToFit(img, s.opts.ThumbnailSize)

	out, err := s.store.OpenForWrite(s.thumbPath(name))
	if err != nil {
		return err
	}

	encodeErr := jpeg.Encode(out, dst, &jpeg.Options{Quality: 90})
	closeErr := out.Close()
	if encodeErr != nil {
		return encodeErr
	}
	return closeErr
}

// scaleToFit shrinks img so its longest side is at most size. Smaller
// images keep their dimensions.
func scaleToFit(img image.Image, size int) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	maxDim := max(width, height)
	scale := 1.0
	if maxDim > size {
		scale = float64(size) / float64(maxDim)
	}

	targetWidth := max(1, int(math.Round(float64(width)*scale)))
	targetHeight := max(1, int(math.Round(float64(height)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func (s *ImageService) tempPath(name string) string {
	return "/" + path.Join(s.opts.TempFolder, name)
}

func (s *ImageService) postPath(name string) string {
	return "/" + path.Join(s.opts.PostsFolder, name)
}

func (s *ImageService) thumbPath(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	return "/" + path.Join(s.opts.PostsFolder, "thumbs", base+".jpg")
}
