package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"blog-api/internal/storage"
	"blog-api/pkg/apierror"
)

func pngBytes(t *testing.T, w int, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestImageService(t *testing.T, maxSize int64) (*ImageService, *storage.Local) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	return NewImageService(store, ImageOptions{MaxSize: maxSize, ThumbnailSize: 32}), store
}

func TestImageServiceUploadAndPromote(t *testing.T) {
	t.Parallel()

	svc, store := newTestImageService(t, 1<<20)
	ctx := context.Background()
	data := pngBytes(t, 128, 64)

	upload, err := svc.UploadTemp(ctx, "holiday.png", bytes.NewReader(data))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(upload.FileName, ".png"))
	require.Equal(t, int64(len(data)), upload.Size)
	require.Equal(t, "image/png", upload.MimeType)

	_, err = store.Stat("/temp/" + upload.FileName)
	require.NoError(t, err)

	name, err := svc.Promote(ctx, upload.FileName)
	require.NoError(t, err)
	require.Equal(t, upload.FileName, name)

	_, err = store.Stat("/temp/" + upload.FileName)
	require.Error(t, err)
	_, err = store.Stat("/posts/" + upload.FileName)
	require.NoError(t, err)

	thumbName := strings.TrimSuffix(upload.FileName, filepath.Ext(upload.FileName)) + ".jpg"
	thumb, err := store.OpenForRead("/posts/thumbs/" + thumbName)
	require.NoError(t, err)
	defer thumb.Close()

	cfg, err := jpeg.DecodeConfig(thumb)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.Width)
	require.Equal(t, 16, cfg.Height)
}

func TestImageServiceSkipsThumbnailOverPixelLimit(t *testing.T) {
	t.Parallel()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	svc := NewImageService(store, ImageOptions{ThumbnailSize: 32, MaxThumbnailPixels: 100})
	ctx := context.Background()

	upload, err := svc.UploadTemp(ctx, "wide.png", bytes.NewReader(pngBytes(t, 128, 64)))
	require.NoError(t, err)

	name, err := svc.Promote(ctx, upload.FileName)
	require.NoError(t, err)

	_, err = store.Stat("/posts/" + name)
	require.NoError(t, err)

	thumbName := strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	_, err = store.Stat("/posts/thumbs/" + thumbName)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.Error(t, svc.renderThumbnail(name))
}

func TestImageServiceDemote(t *testing.T) {
	t.Parallel()

	svc, store := newTestImageService(t, 1<<20)
	ctx := context.Background()

	upload, err := svc.UploadTemp(ctx, "back.png", bytes.NewReader(pngBytes(t, 64, 64)))
	require.NoError(t, err)
	_, err = svc.Promote(ctx, upload.FileName)
	require.NoError(t, err)

	require.NoError(t, svc.Demote(ctx, upload.FileName))

	_, err = store.Stat("/temp/" + upload.FileName)
	require.NoError(t, err)
	_, err = store.Stat("/posts/" + upload.FileName)
	require.ErrorIs(t, err, fs.ErrNotExist)
	thumbName := strings.TrimSuffix(upload.FileName, filepath.Ext(upload.FileName)) + ".jpg"
	_, err = store.Stat("/posts/thumbs/" + thumbName)
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = svc.Promote(ctx, upload.FileName)
	require.NoError(t, err)

	require.Error(t, svc.Demote(ctx, "../escape.png"))
}

func TestImageServiceUploadRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("extension", func(t *testing.T) {
		svc, _ := newTestImageService(t, 1<<20)
		_, err := svc.UploadTemp(ctx, "anim.gif", bytes.NewReader([]byte("GIF89a")))
		require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))
	})

	t.Run("content does not match extension", func(t *testing.T) {
		svc, _ := newTestImageService(t, 1<<20)
		_, err := svc.UploadTemp(ctx, "notes.jpg", strings.NewReader("just some text"))
		require.True(t, apierror.HasCode(err, apierror.CodeUnsupportedType))
	})

	t.Run("too large", func(t *testing.T) {
		data := pngBytes(t, 64, 64)
		svc, store := newTestImageService(t, int64(len(data)-1))

		_, err := svc.UploadTemp(ctx, "big.png", bytes.NewReader(data))
		require.True(t, apierror.HasCode(err, apierror.CodePayloadTooLarge))

		entries, err := filepath.Glob(filepath.Join(store.RootAbs(), "temp", "*"))
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestImageServicePromoteRejects(t *testing.T) {
	t.Parallel()

	svc, _ := newTestImageService(t, 1<<20)
	ctx := context.Background()

	for _, name := range []string{"", "../secret.png", "temp/x.png", "x.gif"} {
		_, err := svc.Promote(ctx, name)
		require.True(t, apierror.HasCode(err, apierror.CodeBadRequest), name)
	}

	_, err := svc.Promote(ctx, "missing.png")
	require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))
}

func TestScaleToFitKeepsSmallImages(t *testing.T) {
	t.Parallel()

	dst := scaleToFit(image.NewRGBA(image.Rect(0, 0, 10, 4)), 256)
	require.Equal(t, 10, dst.Bounds().Dx())
	require.Equal(t, 4, dst.Bounds().Dy())
}

func TestImageServicePromoteWithMockStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rename failure is returned", func(t *testing.T) {
		store := &storage.MockStorage{}
		store.On("Stat", "/temp/a.png").Return(nil, nil).Once()
		store.On("Rename", "/temp/a.png", "/posts/a.png").Return(errors.New("disk full")).Once()

		svc := NewImageService(store, ImageOptions{})
		_, err := svc.Promote(ctx, "a.png")
		require.EqualError(t, err, "disk full")
		store.AssertExpectations(t)
	})

	t.Run("thumbnail failure does not fail the promotion", func(t *testing.T) {
		store := &storage.MockStorage{}
		store.On("Stat", "/temp/b.jpg").Return(nil, nil).Once()
		store.On("Rename", "/temp/b.jpg", "/posts/b.jpg").Return(nil).Once()
		store.On("OpenForRead", "/posts/b.jpg").Return(nil, errors.New("gone")).Once()

		svc := NewImageService(store, ImageOptions{})
		name, err := svc.Promote(ctx, "b.jpg")
		require.NoError(t, err)
		require.Equal(t, "b.jpg", name)
		store.AssertExpectations(t)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := &storage.MockStorage{}
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewImageService(store, ImageOptions{}).Promote(cancelled, "c.png")
		require.ErrorIs(t, err, context.Canceled)
		store.AssertNotCalled(t, "Stat", mock.Anything)
	})
}
