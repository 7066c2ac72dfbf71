package router

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

// memStore backs both the user and post store interfaces for router tests.
type memStore struct {
	mu    sync.Mutex
	users []model.User
	posts map[int64]model.Post
	next  int64
}

func newMemStore() *memStore {
	return &memStore{posts: map[int64]model.Post{}}
}

type memUsers struct{ *memStore }

type memPosts struct{ *memStore }

func (m memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m memUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userLocked(id)
}

func (m *memStore) userLocked(id int64) (model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m memUsers) Create(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return model.User{}, apierror.New(apierror.CodeUniquenessConflict, "value already in use", "email", http.StatusConflict)
		}
		if existing.Nickname == u.Nickname {
			return model.User{}, apierror.New(apierror.CodeUniquenessConflict, "value already in use", "nickname", http.StatusConflict)
		}
	}

	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users = append(m.users, u)
	return u, nil
}

func (m memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.User(nil), m.users...), nil
}

func (m memUsers) promote(id int64, role model.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Role = role
		}
	}
}

func (m memPosts) List(_ context.Context, limit int, offset int) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]model.Post, 0, len(m.posts))
	for _, p := range m.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return []model.Post{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (m memPosts) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts), nil
}

func (m memPosts) FindByID(_ context.Context, id int64) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	return p, nil
}

func (m memPosts) Create(_ context.Context, p model.Post) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, err := m.userLocked(p.AuthorID)
	if err != nil {
		return model.Post{}, err
	}

	m.next++
	p.ID = m.next
	p.Author = author.Public()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = p
	return p, nil
}

func (m memPosts) Update(_ context.Context, id int64, patch model.PostPatch) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	m.posts[id] = p
	return p, nil
}

func (m memPosts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}
