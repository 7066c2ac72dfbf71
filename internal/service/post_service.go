package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

type PostStore interface {
	List(ctx context.Context, limit int, offset int) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int64) (model.Post, error)
	Create(ctx context.Context, p model.Post) (model.Post, error)
	Update(ctx context.Context, id int64, patch model.PostPatch) (model.Post, error)
	Delete(ctx context.Context, id int64) error
}

// ImagePromoter moves an uploaded temp image to its permanent location.
// Demote reverses a promotion whose post was never stored.
type ImagePromoter interface {
	Promote(ctx context.Context, fileName string) (string, error)
	Demote(ctx context.Context, fileName string) error
}

type PostService struct {
	store  PostStore
	users  *UserService
	images ImagePromoter
}

func NewPostService(store PostStore, users *UserService, images ImagePromoter) *PostService {
	return &PostService{store: store, users: users, images: images}
}

func (s *PostService) ListPosts(ctx context.Context, query model.PageQuery) ([]model.Post, *model.Meta, error) {
	if query.Page > model.MaxPage {
		return nil, nil, apierror.BadRequest(apierror.CodeBadRequest, "page is out of range", "page")
	}
	query = query.Normalize()

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, nil, err
	}

	posts, err := s.store.List(ctx, query.Limit, query.Offset())
	if err != nil {
		return nil, nil, err
	}

	return posts, model.NewMeta(query, total), nil
}

func (s *PostService) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	post, err := s.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrPostNotFound) {
		return model.Post{}, apierror.New(apierror.CodeNotFound, "post not found", "", http.StatusNotFound)
	}
	return post, err
}

// CreatePost stores a post written by authorID. A referenced image must
// already sit in the temp folder.
func (s *PostService) CreatePost(ctx context.Context, authorID int64, req model.CreatePostRequest) (model.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return model.Post{}, apierror.BadRequest(apierror.CodeBadRequest, "title and content are required", "")
	}

	if _, err := s.users.RequireUser(ctx, authorID); err != nil {
		return model.Post{}, err
	}

	image := ""
	if name := strings.TrimSpace(req.Image); name != "" {
		promoted, err := s.images.Promote(ctx, name)
		if err != nil {
			return model.Post{}, err
		}
		image = promoted
	}

	post, err := s.store.Create(ctx, model.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
		Image:    image,
	})
	if err != nil {
		if image != "" {
			if demoteErr := s.images.Demote(context.WithoutCancel(ctx), image); demoteErr != nil {
				slog.Error("failed to return image to temp folder", "file", image, "error", demoteErr)
			}
		}
		return model.Post{}, err
	}

	slog.Info("post created", "post_id", post.ID, "author_id", authorID)
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, actor model.User, id int64, req model.UpdatePostRequest) (model.Post, error) {
	if req.Title == nil && req.Content == nil {
		return model.Post{}, apierror.BadRequest(apierror.CodeBadRequest, "nothing to update", "")
	}

	patch := model.PostPatch{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.Post{}, apierror.BadRequest(apierror.CodeBadRequest, "title cannot be empty", "title")
		}
		patch.Title = &title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return model.Post{}, apierror.BadRequest(apierror.CodeBadRequest, "content cannot be empty", "content")
		}
		patch.Content = &content
	}

	if _, err := s.ownedPost(ctx, actor, id); err != nil {
		return model.Post{}, err
	}

	post, err := s.store.Update(ctx, id, patch)
	if errors.Is(err, model.ErrPostNotFound) {
		return model.Post{}, apierror.New(apierror.CodeNotFound, "post not found", "", http.StatusNotFound)
	}
	return post, err
}

func (s *PostService) DeletePost(ctx context.Context, actor model.User, id int64) error {
	if _, err := s.ownedPost(ctx, actor, id); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id)
	if errors.Is(err, model.ErrPostNotFound) {
		return apierror.New(apierror.CodeNotFound, "post not found", "", http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	slog.Info("post deleted", "post_id", id, "actor_id", actor.ID)
	return nil
}

// ownedPost loads the post and checks that actor wrote it or is an admin.
func (s *PostService) ownedPost(ctx context.Context, actor model.User, id int64) (model.Post, error) {
	post, err := s.GetPostByID(ctx, id)
	if err != nil {
		return model.Post{}, err
	}

	if post.AuthorID != actor.ID && actor.Role != model.RoleAdmin {
		return model.Post{}, apierror.New(apierror.CodeForbidden, "only the author or an admin can change this post", "", http.StatusForbidden)
	}

	return post, nil
}
