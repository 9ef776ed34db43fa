package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/middleware"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/services"
	"github.com/blogicum/blogicum/utils"
)

// githubAPIBase is the GitHub REST root used after the OAuth exchange.
var githubAPIBase = "https://api.github.com"

// AuthController manages registration, sessions, GitHub login and profile edits.
type AuthController struct {
	users  *services.UserService
	github *oauth2.Config
}

// NewAuthController creates a new AuthController. GitHub login is enabled only when configured.
func NewAuthController(users *services.UserService, cfg config.AppConfig) *AuthController {
	a := &AuthController{users: users}
	if cfg.GitHubEnabled() {
		a.github = &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/auth/oauth/github/callback/",
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}
	}
	return a
}

// RegisterPage renders the sign up form.
func (a *AuthController) RegisterPage(ctx *gin.Context) {
	render(ctx, http.StatusOK, "registration.html", gin.H{"form": services.RegistrationForm{}})
}

// Register creates an account and redirects to the index.
func (a *AuthController) Register(ctx *gin.Context) {
	var form services.RegistrationForm
	_ = ctx.ShouldBind(&form)
	user, err := a.users.Register(ctx.Request.Context(), form)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			form.Password1, form.Password2 = "", ""
			render(ctx, http.StatusOK, "registration.html", gin.H{"form": form, "errors": errs})
			return
		}
		fail(ctx, err)
		return
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username)
	ctx.Redirect(http.StatusFound, "/")
}

// LoginPage renders the login form.
func (a *AuthController) LoginPage(ctx *gin.Context) {
	a.renderLogin(ctx, http.StatusOK, services.LoginForm{}, ctx.Query("next"), nil)
}

// Login checks credentials, sets the session cookie and follows next.
func (a *AuthController) Login(ctx *gin.Context) {
	var form services.LoginForm
	_ = ctx.ShouldBind(&form)
	next := ctx.PostForm("next")
	user, err := a.users.Authenticate(ctx.Request.Context(), form)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			form.Password = ""
			a.renderLogin(ctx, http.StatusOK, form, next, errs)
			return
		}
		fail(ctx, err)
		return
	}
	if err := a.startSession(ctx, user); err != nil {
		ServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, afterLogin(next, user))
}

// Logout revokes the current token and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token := middleware.SessionToken(ctx); token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
		}
	}
	cfg := config.Get()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
	render(ctx, http.StatusOK, "logged_out.html", gin.H{"user": (*models.User)(nil)})
}

// GitHubLogin redirects to GitHub's consent screen.
func (a *AuthController) GitHubLogin(ctx *gin.Context) {
	if a.github == nil {
		NotFound(ctx)
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, middleware.SafeNext(ctx.Query("next")), 10*time.Minute)
	ctx.Redirect(http.StatusFound, a.github.AuthCodeURL(state))
}

// GitHubCallback exchanges the code, links or creates the account and logs in.
func (a *AuthController) GitHubCallback(ctx *gin.Context) {
	if a.github == nil {
		NotFound(ctx)
		return
	}
	code, state := ctx.Query("code"), ctx.Query("state")
	next, ok := utils.ConsumeState(state)
	if code == "" || !ok {
		a.renderLogin(ctx, http.StatusBadRequest, services.LoginForm{}, "",
			map[string]string{services.NonFieldErrors: "GitHub login failed or expired. Please try again."})
		return
	}
	token, err := a.github.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Sugar.Warnf("github code exchange failed: %v", err)
		a.renderLogin(ctx, http.StatusBadRequest, services.LoginForm{}, "",
			map[string]string{services.NonFieldErrors: "GitHub login failed. Please try again."})
		return
	}
	profile, err := fetchGitHubUser(ctx.Request.Context(), a.github.Client(ctx.Request.Context(), token))
	if err != nil {
		ServerError(ctx, err)
		return
	}
	user, err := a.users.LoginWithProvider(ctx.Request.Context(), "github", profile.ID, profile.Login, profile.Email)
	if err != nil {
		ServerError(ctx, err)
		return
	}
	if err := a.startSession(ctx, user); err != nil {
		ServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, afterLogin(next, user))
}

// EditProfilePage renders the profile form for the current user.
func (a *AuthController) EditProfilePage(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	render(ctx, http.StatusOK, "user.html", gin.H{"form": services.ProfileForm{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}})
}

// EditProfile saves the profile form and redirects to the profile page.
func (a *AuthController) EditProfile(ctx *gin.Context) {
	var form services.ProfileForm
	_ = ctx.ShouldBind(&form)
	user, err := a.users.UpdateProfile(ctx.Request.Context(), middleware.CurrentUser(ctx), form)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			render(ctx, http.StatusOK, "user.html", gin.H{"form": form, "errors": errs})
			return
		}
		fail(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, profileURL(user.Username))
}

func (a *AuthController) renderLogin(ctx *gin.Context, status int, form services.LoginForm, next string, errs map[string]string) {
	if errs == nil {
		errs = map[string]string{}
	}
	render(ctx, status, "login.html", gin.H{
		"form":           form,
		"next":           middleware.SafeNext(next),
		"errors":         errs,
		"github_enabled": a.github != nil,
	})
}

// startSession issues a JWT and stores it in an HttpOnly cookie.
func (a *AuthController) startSession(ctx *gin.Context, user *models.User) error {
	ttl := utils.SessionTTL()
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	cfg := config.Get()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, token, int(ttl.Seconds()), "/", "", cfg.CookieSecure, true)
	return nil
}

func afterLogin(next string, user *models.User) string {
	if safe := middleware.SafeNext(next); safe != "" {
		return safe
	}
	return profileURL(user.Username)
}

type githubUser struct {
	ID    string
	Login string
	Email string
}

func fetchGitHubUser(ctx context.Context, client *http.Client) (*githubUser, error) {
	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := getGitHubJSON(ctx, client, "/user", &payload); err != nil {
		return nil, err
	}
	u := &githubUser{ID: strconv.FormatInt(payload.ID, 10), Login: payload.Login, Email: payload.Email}
	if u.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getGitHubJSON(ctx, client, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					u.Email = e.Email
					break
				}
			}
		}
	}
	return u, nil
}

func getGitHubJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s request failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
