package services

import (
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
)

// PublicQuery matches posts anyone may see at now: published post, published
// category and a pub_date that is not in the future.
func PublicQuery(now time.Time) storage.PostQuery {
	return storage.PostQuery{PublishedOnly: true, PublishedBefore: &now}
}

// WithAuthor narrows q to one author.
func WithAuthor(q storage.PostQuery, authorID uint) storage.PostQuery {
	q.AuthorID = &authorID
	return q
}

// WithCategorySlug narrows q to one category.
func WithCategorySlug(q storage.PostQuery, slug string) storage.PostQuery {
	q.CategorySlug = slug
	return q
}

// ForViewer returns the listing of ownerID's posts as seen by viewer.
// The owner sees everything they wrote; anyone else gets the public filter.
func ForViewer(ownerID uint, viewer *models.User, now time.Time) storage.PostQuery {
	if CheckOwner(ownerID, viewer) {
		return WithAuthor(storage.PostQuery{}, ownerID)
	}
	return WithAuthor(PublicQuery(now), ownerID)
}

// IsPubliclyVisible reports whether p passes the public filter. p.Category must be loaded.
func IsPubliclyVisible(p *models.Post, now time.Time) bool {
	q := PublicQuery(now)
	return q.Match(p)
}

// CanView reports whether viewer may open p.
func CanView(p *models.Post, viewer *models.User, now time.Time) bool {
	return CheckOwner(p.AuthorID, viewer) || IsPubliclyVisible(p, now)
}

// CheckOwner reports whether viewer is the author identified by authorID.
// Anonymous viewers never own anything.
func CheckOwner(authorID uint, viewer *models.User) bool {
	return viewer != nil && viewer.ID == authorID
}

// Annotate pairs posts with their comment counts, keeping order.
func Annotate(posts []models.Post, counts map[uint]int64) []models.PostCard {
	cards := make([]models.PostCard, len(posts))
	for i, p := range posts {
		cards[i] = models.PostCard{Post: p, CommentCount: counts[p.ID]}
	}
	return cards
}
