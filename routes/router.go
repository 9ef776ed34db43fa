package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/controllers"
	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/services"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/templates"
	"github.com/blogicum/blogicum/utils"
)

// Options tweaks router construction; the zero value is production behaviour.
type Options struct {
	// Now replaces the clock used for visibility checks.
	Now func() time.Time
}

// SetupRouter wires middlewares, services and controllers on top of store.
func SetupRouter(cfg config.AppConfig, store storage.Storage, opts Options) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// Wildcard origins cannot be combined with credentials.
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	postService := services.NewPostService(store, cfg.PaginateBy, opts.Now)

	renderer, err := templates.New(cfg.TemplatesDir, postService.Location())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.HTMLRender = renderer
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.Static("/static", cfg.StaticDir)
	r.Static("/media", cfg.MediaDir)

	commentService := services.NewCommentService(store, postService, opts.Now)
	userService := services.NewUserService(store)

	var pinger controllers.Pinger
	if p, ok := store.(controllers.Pinger); ok {
		pinger = p
	}

	blogController := controllers.NewBlogController(postService)
	postController := controllers.NewPostController(postService, cfg.MediaDir, cfg.MaxUploadMB)
	commentController := controllers.NewCommentController(commentService, blogController)
	authController := controllers.NewAuthController(userService, cfg)
	pagesController := controllers.NewPagesController(pinger)

	r.GET("/health", pagesController.Health)

	site := r.Group("")
	site.Use(middleware.Session(userService))

	site.GET("/", blogController.Index)
	site.GET("/category/:slug/", blogController.Category)
	site.GET("/profile/:username/", blogController.Profile)
	site.GET("/posts/:id/", blogController.PostDetail)

	site.GET("/pages/about/", pagesController.About)
	site.GET("/pages/rules/", pagesController.Rules)

	authGroup := site.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	authGroup.GET("/registration/", authController.RegisterPage)
	authGroup.POST("/registration/", authController.Register)
	authGroup.GET("/login/", authController.LoginPage)
	authGroup.POST("/login/", authController.Login)
	authGroup.POST("/logout/", authController.Logout)
	authGroup.GET("/oauth/github/login/", authController.GitHubLogin)
	authGroup.GET("/oauth/github/callback/", authController.GitHubCallback)

	protected := site.Group("")
	protected.Use(middleware.LoginRequired())
	protected.GET("/posts/create/", postController.NewPost)
	protected.POST("/posts/create/", postController.CreatePost)
	protected.GET("/posts/:id/edit/", postController.EditPostPage)
	protected.POST("/posts/:id/edit/", postController.UpdatePost)
	protected.GET("/posts/:id/delete/", postController.DeletePostPage)
	protected.POST("/posts/:id/delete/", postController.DeletePost)
	protected.POST("/posts/:id/comment/", commentController.AddComment)
	protected.GET("/posts/:id/edit_comment/:comment_id/", commentController.EditCommentPage)
	protected.POST("/posts/:id/edit_comment/:comment_id/", commentController.UpdateComment)
	protected.GET("/posts/:id/delete_comment/:comment_id/", commentController.DeleteCommentPage)
	protected.POST("/posts/:id/delete_comment/:comment_id/", commentController.DeleteComment)
	protected.GET("/edit_profile/", authController.EditProfilePage)
	protected.POST("/edit_profile/", authController.EditProfile)

	// 404 pages still show who is logged in.
	r.NoRoute(middleware.Session(userService), func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/static/") || strings.HasPrefix(ctx.Request.URL.Path, "/media/") {
			ctx.String(http.StatusNotFound, "not found")
			return
		}
		controllers.NotFound(ctx)
	})

	return r, nil
}
