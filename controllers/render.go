package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/services"
	"github.com/blogicum/blogicum/utils"
)

// render writes a page with the values every layout needs.
func render(ctx *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["user"]; !ok {
		data["user"] = middleware.CurrentUser(ctx)
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string]string{}
	}
	ctx.HTML(status, page, data)
}

// NotFound renders the 404 page.
func NotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "404.html", nil)
}

// ServerError logs err and renders the 500 page.
func ServerError(ctx *gin.Context, err error) {
	utils.Logger.Error("request failed",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.Error(err),
	)
	render(ctx, http.StatusInternalServerError, "500.html", nil)
}

// fail maps a service error onto a response. Validation errors are handled by callers.
func fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFound(ctx)
	case errors.Is(err, services.ErrAnonymous):
		ctx.Redirect(http.StatusFound, middleware.LoginRedirect(ctx.Request.URL.RequestURI()))
	default:
		ServerError(ctx, err)
	}
}

// fieldErrors returns the field messages of a validation error, or nil for any other error.
func fieldErrors(err error) map[string]string {
	if ve, ok := services.AsValidation(err); ok {
		return ve.Fields
	}
	return nil
}

// paramID parses a positive integer route parameter.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
