package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"blog-api/internal/model"
	"blog-api/internal/storage"
	"blog-api/pkg/apierror"
)

type postFixture struct {
	svc    *PostService
	images *stubPromoter
	author model.User
	other  model.User
	admin  model.User
}

func newPostFixture(t *testing.T) postFixture {
	t.Helper()

	ctx := context.Background()
	userStore := newMemUserStore()
	users := NewUserService(userStore)

	author, err := users.CreateUser(ctx, model.User{Nickname: "author", Email: "author@x.com"})
	require.NoError(t, err)
	other, err := users.CreateUser(ctx, model.User{Nickname: "other", Email: "other@x.com"})
	require.NoError(t, err)
	admin, err := users.CreateUser(ctx, model.User{Nickname: "admin", Email: "admin@x.com", Role: model.RoleAdmin})
	require.NoError(t, err)

	images := &stubPromoter{}
	return postFixture{
		svc:    NewPostService(newMemPostStore(userStore), users, images),
		images: images,
		author: author,
		other:  other,
		admin:  admin,
	}
}

func TestPostServiceCreateAndGet(t *testing.T) {
	t.Parallel()

	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: " hello ", Content: "world", Image: "abc.png"})
	require.NoError(t, err)
	require.Equal(t, "hello", post.Title)
	require.Equal(t, f.author.ID, post.AuthorID)
	require.Equal(t, "author", post.Author.Nickname)
	require.Equal(t, "abc.png", post.Image)
	require.Zero(t, post.LikeCount)
	require.Zero(t, post.CommentCount)
	require.Equal(t, []string{"abc.png"}, f.images.promoted)

	got, err := f.svc.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, post.ID, got.ID)

	_, err = f.svc.GetPostByID(ctx, 999)
	require.True(t, apierror.HasCode(err, apierror.CodeNotFound))

	_, err = f.svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: "  ", Content: "x"})
	require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))

	_, err = f.svc.CreatePost(ctx, 999, model.CreatePostRequest{Title: "t", Content: "c"})
	require.True(t, apierror.HasCode(err, apierror.CodeNotFound))
}

func TestPostServiceCreateFailsWhenImageMissing(t *testing.T) {
	t.Parallel()

	f := newPostFixture(t)
	f.images.err = apierror.BadRequest(apierror.CodeBadRequest, "image does not exist in the temp folder", "gone.png")

	_, err := f.svc.CreatePost(context.Background(), f.author.ID, model.CreatePostRequest{Title: "t", Content: "c", Image: "gone.png"})
	require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))

	posts, meta, err := f.svc.ListPosts(context.Background(), model.PageQuery{})
	require.NoError(t, err)
	require.Empty(t, posts)
	require.Equal(t, 0, meta.Total)
}

func TestPostServiceCreateReturnsImageWhenInsertFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userStore := newMemUserStore()
	users := NewUserService(userStore)
	author, err := users.CreateUser(ctx, model.User{Nickname: "author", Email: "author@x.com"})
	require.NoError(t, err)

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	images := NewImageService(store, ImageOptions{ThumbnailSize: 16})
	posts := &failingPostStore{memPostStore: newMemPostStore(userStore), failCreate: true}
	svc := NewPostService(posts, users, images)

	upload, err := images.UploadTemp(ctx, "cover.png", bytes.NewReader(pngBytes(t, 40, 20)))
	require.NoError(t, err)
	req := model.CreatePostRequest{Title: "t", Content: "c", Image: upload.FileName}

	_, err = svc.CreatePost(ctx, author.ID, req)
	require.EqualError(t, err, "db down")

	_, err = store.Stat("/temp/" + upload.FileName)
	require.NoError(t, err)
	_, err = store.Stat("/posts/" + upload.FileName)
	require.Error(t, err)

	posts.failCreate = false
	post, err := svc.CreatePost(ctx, author.ID, req)
	require.NoError(t, err)
	require.Equal(t, upload.FileName, post.Image)

	_, err = store.Stat("/posts/" + upload.FileName)
	require.NoError(t, err)
}

func TestPostServiceCreateDemotesOnlyWhenImageSet(t *testing.T) {
	t.Parallel()

	f := newPostFixture(t)
	ctx := context.Background()
	failing := &failingPostStore{memPostStore: newMemPostStore(newMemUserStore()), failCreate: true}
	svc := NewPostService(failing, f.svc.users, f.images)

	_, err := svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: "t", Content: "c"})
	require.Error(t, err)
	require.Empty(t, f.images.demoted)

	_, err = svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: "t", Content: "c", Image: "x.png"})
	require.Error(t, err)
	require.Equal(t, []string{"x.png"}, f.images.demoted)
}

func TestPostServiceListPaginates(t *testing.T) {
	t.Parallel()

	f := newPostFixture(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := f.svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: fmt.Sprintf("post %d", i), Content: "c"})
		require.NoError(t, err)
	}

	posts, meta, err := f.svc.ListPosts(ctx, model.PageQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "post 2", posts[0].Title)
	require.Equal(t, &model.Meta{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, meta)

	_, _, err = f.svc.ListPosts(ctx, model.PageQuery{Page: math.MaxInt64 / 50, Limit: 100})
	require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))

	posts, meta, err = f.svc.ListPosts(ctx, model.PageQuery{Page: 0, Limit: 500})
	require.NoError(t, err)
	require.Len(t, posts, 5)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, model.MaxPageLimit, meta.Limit)
}

func TestPostServiceOwnership(t *testing.T) {
	t.Parallel()

	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, f.author.ID, model.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	title := "edited"
	_, err = f.svc.UpdatePost(ctx, f.other, post.ID, model.UpdatePostRequest{Title: &title})
	require.True(t, apierror.HasCode(err, apierror.CodeForbidden))

	updated, err := f.svc.UpdatePost(ctx, f.author, post.ID, model.UpdatePostRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Title)
	require.Equal(t, "c", updated.Content)

	_, err = f.svc.UpdatePost(ctx, f.author, post.ID, model.UpdatePostRequest{})
	require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))

	err = f.svc.DeletePost(ctx, f.other, post.ID)
	require.True(t, apierror.HasCode(err, apierror.CodeForbidden))

	require.NoError(t, f.svc.DeletePost(ctx, f.admin, post.ID))

	err = f.svc.DeletePost(ctx, f.admin, post.ID)
	require.True(t, apierror.HasCode(err, apierror.CodeNotFound))
}
