package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/services"
)

// CommentController handles adding, editing and deleting comments.
type CommentController struct {
	comments *services.CommentService
	blog     *BlogController
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *services.CommentService, blog *BlogController) *CommentController {
	return &CommentController{comments: comments, blog: blog}
}

// AddComment stores a comment by the current user and returns to the post.
// An invalid form re-renders the post page with the errors.
func (cc *CommentController) AddComment(ctx *gin.Context) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return
	}
	var form services.CommentForm
	_ = ctx.ShouldBind(&form)
	_, err := cc.comments.Add(ctx.Request.Context(), postID, middleware.CurrentUser(ctx), form)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			cc.blog.renderDetail(ctx, postID, http.StatusOK, form, errs)
			return
		}
		fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(postID)+"#comments")
}

// EditCommentPage renders the comment form for its author.
func (cc *CommentController) EditCommentPage(ctx *gin.Context) {
	comment, ok := cc.owned(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "comment.html", gin.H{
		"comment": comment,
		"form":    services.CommentForm{Text: comment.Text},
	})
}

// UpdateComment saves a new text and returns to the post.
func (cc *CommentController) UpdateComment(ctx *gin.Context) {
	postID, commentID, ok := commentParams(ctx)
	if !ok {
		return
	}
	var form services.CommentForm
	_ = ctx.ShouldBind(&form)
	comment, err := cc.comments.Update(ctx.Request.Context(), postID, commentID, middleware.CurrentUser(ctx), form)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotOwner):
			ctx.Redirect(http.StatusFound, postURL(postID))
		case fieldErrors(err) != nil:
			render(ctx, http.StatusOK, "comment.html", gin.H{
				"comment": comment,
				"form":    form,
				"errors":  fieldErrors(err),
			})
		default:
			fail(ctx, err)
		}
		return
	}
	ctx.Redirect(http.StatusFound, postURL(postID)+"#comments")
}

// DeleteCommentPage asks for confirmation.
func (cc *CommentController) DeleteCommentPage(ctx *gin.Context) {
	comment, ok := cc.owned(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "delete_comment.html", gin.H{"comment": comment})
}

// DeleteComment removes the comment and returns to the post.
func (cc *CommentController) DeleteComment(ctx *gin.Context) {
	postID, commentID, ok := commentParams(ctx)
	if !ok {
		return
	}
	_, err := cc.comments.Delete(ctx.Request.Context(), postID, commentID, middleware.CurrentUser(ctx))
	if err != nil && !errors.Is(err, services.ErrNotOwner) {
		fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(postID))
}

func (cc *CommentController) owned(ctx *gin.Context) (*models.Comment, bool) {
	postID, commentID, ok := commentParams(ctx)
	if !ok {
		return nil, false
	}
	comment, err := cc.comments.Owned(ctx.Request.Context(), postID, commentID, middleware.CurrentUser(ctx))
	switch {
	case err == nil:
		return comment, true
	case errors.Is(err, services.ErrNotOwner):
		ctx.Redirect(http.StatusFound, postURL(postID))
	default:
		fail(ctx, err)
	}
	return nil, false
}

func commentParams(ctx *gin.Context) (uint, uint, bool) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return 0, 0, false
	}
	commentID, ok := paramID(ctx, "comment_id")
	if !ok {
		NotFound(ctx)
		return 0, 0, false
	}
	return postID, commentID, true
}
