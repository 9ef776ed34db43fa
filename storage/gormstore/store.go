package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
)

// Store implements storage.Storage on top of GORM.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// Models lists the tables in migration order.
func Models() []interface{} {
	return []interface{}{&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{}}
}

// Open connects using cfg and migrates the schema.
func Open(cfg config.AppConfig) (*Store, error) {
	db, err := config.OpenDatabase(cfg, Models()...)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already opened connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM errors onto storage sentinels.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(strings.ToLower(err.Error()), "duplicate"):
		err = storage.ErrDuplicate
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func affected(tx *gorm.DB, format string, args ...any) error {
	if tx.Error != nil {
		return translate(tx.Error, format, args...)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf(format+": %w", append(args, storage.ErrNotFound)...)
	}
	return nil
}

// updated checks an UPDATE result. MySQL reports zero affected rows when
// nothing changed, so a missing row is confirmed with a count.
func (s *Store) updated(ctx context.Context, tx *gorm.DB, model any, id uint, format string, args ...any) error {
	if tx.Error != nil {
		return translate(tx.Error, format, args...)
	}
	if tx.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err, format, args...)
	}
	if n == 0 {
		return fmt.Errorf(format+": %w", append(args, storage.ErrNotFound)...)
	}
	return nil
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, "create user %q", user.Username)
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "user %d", id)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err, "user %q", username)
	}
	return &u, nil
}

func (s *Store) GetUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("provider = ? AND provider_id = ?", provider, providerID).First(&u).Error
	if err != nil {
		return nil, translate(err, "user %s/%s", provider, providerID)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	tx := s.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("username", "first_name", "last_name", "email", "password_hash", "updated_at").
		Updates(user)
	return s.updated(ctx, tx, &models.User{}, user.ID, "update user %d", user.ID)
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.User{}, id), "delete user %d", id)
}

// --- categories & locations ---

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(category).Error, "create category %q", category.Slug)
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err, "category %q", slug)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := s.db.WithContext(ctx).Order("title ASC").Find(&out).Error
	return out, translate(err, "list categories")
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Category{}, id), "delete category %d", id)
}

func (s *Store) CreateLocation(ctx context.Context, location *models.Location) error {
	return translate(s.db.WithContext(ctx).Create(location).Error, "create location %q", location.Name)
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	var out []models.Location
	err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err, "list locations")
}

func (s *Store) DeleteLocation(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Location{}, id), "delete location %d", id)
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	err := s.db.WithContext(ctx).Omit("Author", "Category", "Location", "Comments").Create(post).Error
	return translate(err, "create post")
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Location").
		First(&p, id).Error
	if err != nil {
		return nil, translate(err, "post %d", id)
	}
	return &p, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	tx := s.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Updates(map[string]any{
			"title":        post.Title,
			"text":         post.Text,
			"pub_date":     post.PubDate,
			"image":        post.Image,
			"is_published": post.IsPublished,
			"location_id":  post.LocationID,
			"category_id":  post.CategoryID,
		})
	return s.updated(ctx, tx, &models.Post{}, post.ID, "update post %d", post.ID)
}

func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Post{}, id), "delete post %d", id)
}

// filtered applies q to a posts query. Category filters join the categories table.
func (s *Store) filtered(ctx context.Context, q storage.PostQuery) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Post{})
	if q.AuthorID != nil {
		tx = tx.Where("posts.author_id = ?", *q.AuthorID)
	}
	if q.PublishedOnly || q.CategorySlug != "" {
		tx = tx.Joins("JOIN categories ON categories.id = posts.category_id")
	}
	if q.PublishedOnly {
		tx = tx.Where("posts.is_published = ? AND categories.is_published = ?", true, true)
	}
	if q.CategorySlug != "" {
		tx = tx.Where("categories.slug = ?", q.CategorySlug)
	}
	if q.PublishedBefore != nil {
		tx = tx.Where("posts.pub_date <= ?", *q.PublishedBefore)
	}
	return tx
}

func (s *Store) ListPosts(ctx context.Context, q storage.PostQuery, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	tx := s.filtered(ctx, q).
		Select("posts.*").
		Preload("Author").Preload("Category").Preload("Location").
		Order("posts.pub_date DESC").Order("posts.id DESC").
		Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&posts).Error; err != nil {
		return nil, translate(err, "list posts")
	}
	return posts, nil
}

func (s *Store) CountPosts(ctx context.Context, q storage.PostQuery) (int64, error) {
	var n int64
	err := s.filtered(ctx, q).Count(&n).Error
	return n, translate(err, "count posts")
}

func (s *Store) CountComments(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "count comments")
	}
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	err := s.db.WithContext(ctx).Omit("Author").Create(comment).Error
	return translate(err, "create comment on post %d", comment.PostID)
}

func (s *Store) GetComment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&c).Error
	if err != nil {
		return nil, translate(err, "comment %d of post %d", commentID, postID)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var out []models.Comment
	err := s.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, translate(err, "list comments of post %d", postID)
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	tx := s.db.WithContext(ctx).Model(&models.Comment{ID: comment.ID}).Update("text", comment.Text)
	return s.updated(ctx, tx, &models.Comment{}, comment.ID, "update comment %d", comment.ID)
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Comment{}, id), "delete comment %d", id)
}
