package services

import (
	"context"
	"fmt"
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/utils"
)

// CommentService adds, edits and deletes comments.
type CommentService struct {
	store storage.Storage
	posts *PostService
	now   func() time.Time
}

// NewCommentService builds a CommentService. A nil clock means time.Now.
func NewCommentService(store storage.Storage, posts *PostService, now func() time.Time) *CommentService {
	if now == nil {
		now = time.Now
	}
	return &CommentService{store: store, posts: posts, now: now}
}

func cleanComment(form CommentForm) (CommentForm, error) {
	form.Text = utils.StripTags(form.Text)
	if ve := validateForm(form); ve != nil {
		return form, ve
	}
	return form, nil
}

// Add comments on a post the viewer can see. The author is always viewer.
func (s *CommentService) Add(ctx context.Context, postID uint, viewer *models.User, form CommentForm) (*models.Comment, error) {
	if viewer == nil {
		return nil, ErrAnonymous
	}
	if _, err := s.posts.Visible(ctx, postID, viewer); err != nil {
		return nil, err
	}
	form, err := cleanComment(form)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{
		Text:      form.Text,
		PostID:    postID,
		AuthorID:  viewer.ID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, notFound(err)
	}
	comment.Author = *viewer
	return comment, nil
}

// Owned loads a comment of postID for modification by viewer.
func (s *CommentService) Owned(ctx context.Context, postID, commentID uint, viewer *models.User) (*models.Comment, error) {
	if viewer == nil {
		return nil, ErrAnonymous
	}
	comment, err := s.store.GetComment(ctx, postID, commentID)
	if err != nil {
		return nil, notFound(err)
	}
	if !CheckOwner(comment.AuthorID, viewer) {
		return comment, fmt.Errorf("comment %d: %w", commentID, ErrNotOwner)
	}
	return comment, nil
}

// Update replaces the text of a comment owned by viewer.
func (s *CommentService) Update(ctx context.Context, postID, commentID uint, viewer *models.User, form CommentForm) (*models.Comment, error) {
	comment, err := s.Owned(ctx, postID, commentID, viewer)
	if err != nil {
		return comment, err
	}
	form, err = cleanComment(form)
	if err != nil {
		return comment, err
	}
	comment.Text = form.Text
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return comment, notFound(err)
	}
	return comment, nil
}

// Delete removes a comment owned by viewer.
func (s *CommentService) Delete(ctx context.Context, postID, commentID uint, viewer *models.User) (*models.Comment, error) {
	comment, err := s.Owned(ctx, postID, commentID, viewer)
	if err != nil {
		return comment, err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return comment, notFound(err)
	}
	return comment, nil
}
