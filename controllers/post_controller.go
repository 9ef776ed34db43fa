package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/services"
	"github.com/blogicum/blogicum/utils"
)

// PostController handles creating, editing and deleting posts.
type PostController struct {
	posts       *services.PostService
	mediaDir    string
	maxUploadMB int
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, mediaDir string, maxUploadMB int) *PostController {
	return &PostController{posts: posts, mediaDir: mediaDir, maxUploadMB: maxUploadMB}
}

// NewPost renders an empty post form, published by default.
func (p *PostController) NewPost(ctx *gin.Context) {
	p.renderForm(ctx, http.StatusOK, services.PostForm{IsPublished: true}, nil, nil)
}

// CreatePost stores a post authored by the current user and redirects to their profile.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	form := bindPostForm(ctx)
	if errs := p.attachImage(ctx, &form); errs != nil {
		p.renderForm(ctx, http.StatusOK, form, nil, errs)
		return
	}
	if _, err := p.posts.Create(ctx.Request.Context(), user, form); err != nil {
		utils.RemoveImage(p.mediaDir, form.Image)
		if errs := fieldErrors(err); errs != nil {
			p.renderForm(ctx, http.StatusOK, form, nil, errs)
			return
		}
		fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, profileURL(user.Username))
}

// EditPostPage renders the post form filled with the current values.
func (p *PostController) EditPostPage(ctx *gin.Context) {
	post, ok := p.owned(ctx)
	if !ok {
		return
	}
	p.renderForm(ctx, http.StatusOK, p.posts.EditForm(post), post, nil)
}

// UpdatePost saves the post form and redirects to the post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return
	}
	user := middleware.CurrentUser(ctx)
	// Check ownership before accepting an upload.
	current, ok := p.owned(ctx)
	if !ok {
		return
	}
	oldImage := current.Image

	form := bindPostForm(ctx)
	if errs := p.attachImage(ctx, &form); errs != nil {
		p.renderForm(ctx, http.StatusOK, form, current, errs)
		return
	}
	post, err := p.posts.Update(ctx.Request.Context(), id, user, form)
	if err != nil {
		utils.RemoveImage(p.mediaDir, form.Image)
		if errors.Is(err, services.ErrNotOwner) {
			ctx.Redirect(http.StatusFound, postURL(id))
			return
		}
		if errs := fieldErrors(err); errs != nil {
			p.renderForm(ctx, http.StatusOK, form, current, errs)
			return
		}
		fail(ctx, err)
		return
	}
	if oldImage != "" && oldImage != post.Image {
		utils.RemoveImage(p.mediaDir, oldImage)
	}
	ctx.Redirect(http.StatusFound, postURL(id))
}

// DeletePostPage asks for confirmation.
func (p *PostController) DeletePostPage(ctx *gin.Context) {
	post, ok := p.owned(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "delete_post.html", gin.H{"post": post})
}

// DeletePost removes the post with its comments and redirects to the index.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return
	}
	post, err := p.posts.Delete(ctx.Request.Context(), id, middleware.CurrentUser(ctx))
	if err != nil {
		if errors.Is(err, services.ErrNotOwner) {
			ctx.Redirect(http.StatusFound, postURL(id))
			return
		}
		fail(ctx, err)
		return
	}
	utils.RemoveImage(p.mediaDir, post.Image)
	ctx.Redirect(http.StatusFound, "/")
}

// owned loads the post from the URL for its author. Anyone else is sent back to the post.
func (p *PostController) owned(ctx *gin.Context) (*models.Post, bool) {
	id, ok := paramID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return nil, false
	}
	post, err := p.posts.Owned(ctx.Request.Context(), id, middleware.CurrentUser(ctx))
	switch {
	case err == nil:
		return post, true
	case errors.Is(err, services.ErrNotOwner):
		ctx.Redirect(http.StatusFound, postURL(id))
	default:
		fail(ctx, err)
	}
	return nil, false
}

func (p *PostController) renderForm(ctx *gin.Context, status int, form services.PostForm, post *models.Post, errs map[string]string) {
	cats, locs, err := p.posts.Choices(ctx.Request.Context())
	if err != nil {
		ServerError(ctx, err)
		return
	}
	if errs == nil {
		errs = map[string]string{}
	}
	data := gin.H{
		"form":       form,
		"errors":     errs,
		"categories": cats,
		"locations":  locs,
		"is_edit":    post != nil,
	}
	if post != nil {
		data["post"] = post
		data["current_image"] = post.Image
	}
	render(ctx, status, "create.html", data)
}

// attachImage saves an uploaded image, if any, and records its path on form.
func (p *PostController) attachImage(ctx *gin.Context, form *services.PostForm) map[string]string {
	header, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	if err != nil {
		return map[string]string{"image": "Upload a valid image."}
	}
	if header.Size == 0 {
		return nil
	}
	rel, err := utils.SaveImage(header, p.mediaDir, int64(p.maxUploadMB)<<20)
	switch {
	case err == nil:
		form.Image = rel
		return nil
	case errors.Is(err, utils.ErrImageTooLarge):
		return map[string]string{"image": "The image is larger than " + strconv.Itoa(p.maxUploadMB) + " MB."}
	case errors.Is(err, utils.ErrUnsupportedImage):
		return map[string]string{"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image."}
	default:
		utils.Sugar.Errorf("save image: %v", err)
		return map[string]string{"image": "The image could not be saved."}
	}
}

func bindPostForm(ctx *gin.Context) services.PostForm {
	return services.PostForm{
		Title:       ctx.PostForm("title"),
		Text:        ctx.PostForm("text"),
		PubDate:     ctx.PostForm("pub_date"),
		CategoryID:  optionalID(ctx.PostForm("category")),
		LocationID:  optionalID(ctx.PostForm("location")),
		IsPublished: checkbox(ctx.PostForm("is_published")),
		ClearImage:  checkbox(ctx.PostForm("image-clear")),
	}
}

// optionalID parses a select value. Empty or malformed values mean no choice;
// an unknown id is left for the service to reject.
func optionalID(raw string) *uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

func checkbox(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
