package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PagesController serves static pages and the health check.
type PagesController struct {
	backend Pinger
}

// NewPagesController creates a PagesController. A nil backend is always healthy.
func NewPagesController(backend Pinger) *PagesController {
	return &PagesController{backend: backend}
}

// About renders the about page.
func (p *PagesController) About(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about.html", nil)
}

// Rules renders the site rules.
func (p *PagesController) Rules(ctx *gin.Context) {
	render(ctx, http.StatusOK, "rules.html", nil)
}

// Health reports whether the storage backend answers.
func (p *PagesController) Health(ctx *gin.Context) {
	if p.backend != nil {
		if err := p.backend.Ping(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
