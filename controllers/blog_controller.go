package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/services"
)

// BlogController serves the read-only listings and the post detail page.
type BlogController struct {
	posts *services.PostService
}

// NewBlogController creates a new BlogController instance.
func NewBlogController(posts *services.PostService) *BlogController {
	return &BlogController{posts: posts}
}

// Index lists public posts, newest first.
func (b *BlogController) Index(ctx *gin.Context) {
	listing, err := b.posts.Index(ctx.Request.Context(), services.ParsePage(ctx.Query("page")))
	if err != nil {
		fail(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{
		"posts":    listing.Posts,
		"page_obj": listing.Page,
	})
}

// Category lists the public posts of one published category.
func (b *BlogController) Category(ctx *gin.Context) {
	cat, listing, err := b.posts.Category(ctx.Request.Context(), ctx.Param("slug"), services.ParsePage(ctx.Query("page")))
	if err != nil {
		fail(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "category.html", gin.H{
		"category": cat,
		"posts":    listing.Posts,
		"page_obj": listing.Page,
	})
}

// Profile lists a user's posts; the owner also sees drafts and scheduled posts.
func (b *BlogController) Profile(ctx *gin.Context) {
	viewer := middleware.CurrentUser(ctx)
	owner, listing, err := b.posts.Profile(ctx.Request.Context(), ctx.Param("username"), viewer, services.ParsePage(ctx.Query("page")))
	if err != nil {
		fail(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "profile.html", gin.H{
		"profile":  owner,
		"is_owner": services.CheckOwner(owner.ID, viewer),
		"posts":    listing.Posts,
		"page_obj": listing.Page,
	})
}

// PostDetail shows one post with its comments and an empty comment form.
func (b *BlogController) PostDetail(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return
	}
	b.renderDetail(ctx, id, http.StatusOK, services.CommentForm{}, nil)
}

// renderDetail is shared with the comment form, which re-renders the detail page on errors.
func (b *BlogController) renderDetail(ctx *gin.Context, id uint, status int, form services.CommentForm, errs map[string]string) {
	viewer := middleware.CurrentUser(ctx)
	detail, err := b.posts.Detail(ctx.Request.Context(), id, viewer)
	if err != nil {
		fail(ctx, err)
		return
	}
	if errs == nil {
		errs = map[string]string{}
	}
	render(ctx, status, "detail.html", gin.H{
		"post":     detail.Post,
		"comments": detail.Comments,
		"is_owner": services.CheckOwner(detail.Post.AuthorID, viewer),
		"form":     form,
		"errors":   errs,
	})
}
