package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/blogicum/blogicum/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column (username, slug) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// PostQuery narrows the post collection. The zero value matches every post.
type PostQuery struct {
	AuthorID *uint
	// CategorySlug restricts posts to the category with this slug.
	CategorySlug string
	// PublishedOnly requires the post and its category to be published.
	// Posts without a category never match.
	PublishedOnly bool
	// PublishedBefore keeps posts whose pub_date is not after this instant.
	PublishedBefore *time.Time
}

// Match reports whether p satisfies q. p.Category must be loaded.
func (q PostQuery) Match(p *models.Post) bool {
	if q.AuthorID != nil && p.AuthorID != *q.AuthorID {
		return false
	}
	if q.CategorySlug != "" && (p.Category == nil || p.Category.Slug != q.CategorySlug) {
		return false
	}
	if q.PublishedOnly && (!p.IsPublished || p.Category == nil || !p.Category.IsPublished) {
		return false
	}
	if q.PublishedBefore != nil && p.PubDate.After(*q.PublishedBefore) {
		return false
	}
	return true
}

// SortNewestFirst orders posts by pub_date descending, newer primary keys first on ties.
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].PubDate.After(posts[j].PubDate)
	})
}

// Storage is the persistence contract shared by the GORM and in-memory backends.
// Returned posts carry Author, Category and Location; returned comments carry Author.
type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user together with their posts and comments.
	DeleteUser(ctx context.Context, id uint) error

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	// DeleteCategory keeps the category's posts with a null category.
	DeleteCategory(ctx context.Context, id uint) error

	CreateLocation(ctx context.Context, location *models.Location) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	// DeleteLocation keeps the location's posts with a null location.
	DeleteLocation(ctx context.Context, id uint) error

	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	// UpdatePost persists editable fields; the author is never changed.
	UpdatePost(ctx context.Context, post *models.Post) error
	// DeletePost removes the post and its comments.
	DeletePost(ctx context.Context, id uint) error
	// ListPosts returns matching posts newest first.
	ListPosts(ctx context.Context, q PostQuery, offset, limit int) ([]models.Post, error)
	CountPosts(ctx context.Context, q PostQuery) (int64, error)
	// CountComments returns comment counts keyed by post id; posts without comments are absent.
	CountComments(ctx context.Context, postIDs []uint) (map[uint]int64, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	// GetComment loads a comment only if it belongs to postID.
	GetComment(ctx context.Context, postID, commentID uint) (*models.Comment, error)
	// ListComments returns a post's comments oldest first.
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}
