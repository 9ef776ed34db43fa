package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/utils"
)

const (
	msgUsernameTaken = "A user with that username already exists."
	msgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// UserService handles accounts and profiles.
type UserService struct {
	store storage.Storage
}

// NewUserService builds a UserService.
func NewUserService(store storage.Storage) *UserService {
	return &UserService{store: store}
}

func (s *UserService) usernameTaken(ctx context.Context, username string, except uint) (bool, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.ID != except, nil
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, form RegistrationForm) (*models.User, error) {
	if ve := validateForm(form); ve != nil {
		return nil, ve
	}
	taken, err := s.usernameTaken(ctx, form.Username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Fields: map[string]string{"username": msgUsernameTaken}}
	}
	hash, err := utils.HashPassword(form.Password1)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: form.Username, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ValidationError{Fields: map[string]string{"username": msgUsernameTaken}}
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Failures never reveal which field was wrong.
func (s *UserService) Authenticate(ctx context.Context, form LoginForm) (*models.User, error) {
	if ve := validateForm(form); ve != nil {
		return nil, ve
	}
	user, err := s.store.GetUserByUsername(ctx, form.Username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, form.Password) {
		return nil, &ValidationError{Fields: map[string]string{NonFieldErrors: msgBadLogin}}
	}
	return user, nil
}

// GetByID loads a user for the session middleware.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateProfile edits the viewer's own names, username and email.
func (s *UserService) UpdateProfile(ctx context.Context, viewer *models.User, form ProfileForm) (*models.User, error) {
	if viewer == nil {
		return nil, ErrAnonymous
	}
	form.FirstName = utils.StripTags(form.FirstName)
	form.LastName = utils.StripTags(form.LastName)
	if ve := validateForm(form); ve != nil {
		return nil, ve
	}
	taken, err := s.usernameTaken(ctx, form.Username, viewer.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ValidationError{Fields: map[string]string{"username": msgUsernameTaken}}
	}
	user, err := s.store.GetUserByID(ctx, viewer.ID)
	if err != nil {
		return nil, notFound(err)
	}
	user.Username = form.Username
	user.FirstName = form.FirstName
	user.LastName = form.LastName
	user.Email = form.Email
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ValidationError{Fields: map[string]string{"username": msgUsernameTaken}}
		}
		return nil, err
	}
	return user, nil
}

// LoginWithProvider finds or creates the account linked to an external identity.
// A taken login gets a numeric suffix.
func (s *UserService) LoginWithProvider(ctx context.Context, provider, providerID, login, email string) (*models.User, error) {
	user, err := s.store.GetUserByProvider(ctx, provider, providerID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	base := login
	if !usernamePattern.MatchString(base) || len(base) > 140 {
		base = provider + "-" + providerID
	}
	username := base
	for i := 2; ; i++ {
		taken, err := s.usernameTaken(ctx, username, 0)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		username = fmt.Sprintf("%s%d", base, i)
	}
	user = &models.User{Username: username, Email: email, Provider: provider, ProviderID: providerID}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
