package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
)

// Store keeps every table in a map and emulates the relational delete rules.
type Store struct {
	mu         sync.RWMutex
	users      map[uint]models.User
	categories map[uint]models.Category
	locations  map[uint]models.Location
	posts      map[uint]models.Post
	comments   map[uint]models.Comment
	lastID     uint
}

var _ storage.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[uint]models.User),
		categories: make(map[uint]models.Category),
		locations:  make(map[uint]models.Location),
		posts:      make(map[uint]models.Post),
		comments:   make(map[uint]models.Comment),
	}
}

func (s *Store) nextID() uint {
	s.lastID++
	return s.lastID
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %q: %w", user.Username, storage.ErrDuplicate)
		}
	}
	user.ID = s.nextID()
	stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
}

func (s *Store) GetUserByProvider(_ context.Context, provider, providerID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s/%s: %w", provider, providerID, storage.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
	}
	for id, u := range s.users {
		if id != user.ID && u.Username == user.Username {
			return fmt.Errorf("update user %q: %w", user.Username, storage.ErrDuplicate)
		}
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	delete(s.users, id)
	for pid, p := range s.posts {
		if p.AuthorID == id {
			s.deletePostLocked(pid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

// --- categories & locations ---

func (s *Store) CreateCategory(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == category.Slug {
			return fmt.Errorf("create category %q: %w", category.Slug, storage.ErrDuplicate)
		}
	}
	category.ID = s.nextID()
	stamp(&category.CreatedAt)
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) GetCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", slug, storage.ErrNotFound)
}

func (s *Store) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	delete(s.categories, id)
	for pid, p := range s.posts {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
			s.posts[pid] = p
		}
	}
	return nil
}

func (s *Store) CreateLocation(_ context.Context, location *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	location.ID = s.nextID()
	stamp(&location.CreatedAt)
	s.locations[location.ID] = *location
	return nil
}

func (s *Store) ListLocations(_ context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteLocation(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return fmt.Errorf("location %d: %w", id, storage.ErrNotFound)
	}
	delete(s.locations, id)
	for pid, p := range s.posts {
		if p.LocationID != nil && *p.LocationID == id {
			p.LocationID = nil
			s.posts[pid] = p
		}
	}
	return nil
}

// --- posts ---

// checkRefsLocked rejects dangling foreign keys the way a database would.
func (s *Store) checkRefsLocked(p *models.Post) error {
	if _, ok := s.users[p.AuthorID]; !ok {
		return fmt.Errorf("post author %d: %w", p.AuthorID, storage.ErrNotFound)
	}
	if p.CategoryID != nil {
		if _, ok := s.categories[*p.CategoryID]; !ok {
			return fmt.Errorf("post category %d: %w", *p.CategoryID, storage.ErrNotFound)
		}
	}
	if p.LocationID != nil {
		if _, ok := s.locations[*p.LocationID]; !ok {
			return fmt.Errorf("post location %d: %w", *p.LocationID, storage.ErrNotFound)
		}
	}
	return nil
}

// resolveLocked returns a copy of p with its relations attached.
func (s *Store) resolveLocked(p models.Post) models.Post {
	p.Author = s.users[p.AuthorID]
	p.Category = nil
	p.Location = nil
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	if p.LocationID != nil {
		if l, ok := s.locations[*p.LocationID]; ok {
			p.Location = &l
		}
	}
	p.Comments = nil
	return p
}

// strip drops loaded relations so only columns are stored.
func strip(p models.Post) models.Post {
	p.Author = models.User{}
	p.Category = nil
	p.Location = nil
	p.Comments = nil
	return p
}

func (s *Store) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefsLocked(post); err != nil {
		return err
	}
	post.ID = s.nextID()
	stamp(&post.CreatedAt)
	s.posts[post.ID] = strip(*post)
	return nil
}

func (s *Store) GetPostByID(_ context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	resolved := s.resolveLocked(p)
	return &resolved, nil
}

func (s *Store) UpdatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.posts[post.ID]
	if !ok {
		return fmt.Errorf("post %d: %w", post.ID, storage.ErrNotFound)
	}
	next := strip(*post)
	next.AuthorID = current.AuthorID
	next.CreatedAt = current.CreatedAt
	if err := s.checkRefsLocked(&next); err != nil {
		return err
	}
	s.posts[post.ID] = next
	return nil
}

func (s *Store) DeletePost(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, storage.ErrNotFound)
	}
	s.deletePostLocked(id)
	return nil
}

func (s *Store) deletePostLocked(id uint) {
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *Store) matchLocked(q storage.PostQuery) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range s.posts {
		resolved := s.resolveLocked(p)
		if q.Match(&resolved) {
			out = append(out, resolved)
		}
	}
	return out
}

func (s *Store) ListPosts(_ context.Context, q storage.PostQuery, offset, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := s.matchLocked(q)
	storage.SortNewestFirst(posts)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return []models.Post{}, nil
	}
	end := len(posts)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return posts[offset:end], nil
}

func (s *Store) CountPosts(_ context.Context, q storage.PostQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matchLocked(q))), nil
}

func (s *Store) CountComments(_ context.Context, postIDs []uint) (map[uint]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[uint]struct{}, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[uint]int64, len(postIDs))
	for _, c := range s.comments {
		if _, ok := wanted[c.PostID]; ok {
			counts[c.PostID]++
		}
	}
	return counts, nil
}

// --- comments ---

func (s *Store) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[comment.PostID]; !ok {
		return fmt.Errorf("comment post %d: %w", comment.PostID, storage.ErrNotFound)
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return fmt.Errorf("comment author %d: %w", comment.AuthorID, storage.ErrNotFound)
	}
	comment.ID = s.nextID()
	stamp(&comment.CreatedAt)
	stored := *comment
	stored.Author = models.User{}
	s.comments[comment.ID] = stored
	return nil
}

func (s *Store) GetComment(_ context.Context, postID, commentID uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, fmt.Errorf("comment %d of post %d: %w", commentID, postID, storage.ErrNotFound)
	}
	c.Author = s.users[c.AuthorID]
	return &c, nil
}

func (s *Store) ListComments(_ context.Context, postID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			c.Author = s.users[c.AuthorID]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.comments[comment.ID]
	if !ok {
		return fmt.Errorf("comment %d: %w", comment.ID, storage.ErrNotFound)
	}
	current.Text = comment.Text
	s.comments[comment.ID] = current
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, storage.ErrNotFound)
	}
	delete(s.comments, id)
	return nil
}
