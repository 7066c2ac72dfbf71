package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[int64]model.User{}}
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStore) Create(_ context.Context, u model.User) (model.User, error) {
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

	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u, nil
}

func (m *memUserStore) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memPostStore struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]model.Post
	users  *memUserStore
}

func newMemPostStore(users *memUserStore) *memPostStore {
	return &memPostStore{posts: map[int64]model.Post{}, users: users}
}

func (m *memPostStore) List(_ context.Context, limit int, offset int) ([]model.Post, error) {
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
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (m *memPostStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts), nil
}

func (m *memPostStore) FindByID(_ context.Context, id int64) (model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	return p, nil
}

func (m *memPostStore) Create(ctx context.Context, p model.Post) (model.Post, error) {
	author, err := m.users.FindByID(ctx, p.AuthorID)
	if err != nil {
		return model.Post{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = m.nextID
	p.Author = author.Public()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = p
	return p, nil
}

func (m *memPostStore) Update(_ context.Context, id int64, patch model.PostPatch) (model.Post, error) {
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
	p.UpdatedAt = time.Now().UTC()
	m.posts[id] = p
	return p, nil
}

func (m *memPostStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

type stubPromoter struct {
	promoted []string
	demoted  []string
	err      error
}

func (s *stubPromoter) Promote(_ context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.promoted = append(s.promoted, name)
	return name, nil
}

func (s *stubPromoter) Demote(_ context.Context, name string) error {
	s.demoted = append(s.demoted, name)
	return nil
}

// failingPostStore rejects inserts while failCreate is set.
type failingPostStore struct {
	*memPostStore
	failCreate bool
}

func (f *failingPostStore) Create(ctx context.Context, p model.Post) (model.Post, error) {
	if f.failCreate {
		return model.Post{}, errors.New("db down")
	}
	return f.memPostStore.Create(ctx, p)
}
