package service

import (
	"context"
	"errors"

	"github.com/fracki1010/edu-cart-backend/internal/auth"
	"github.com/fracki1010/edu-cart-backend/internal/domain"
	"github.com/fracki1010/edu-cart-backend/internal/repository"
)

type UserService struct {
	repo repository.UserRepository
	auth *auth.Service
}

func NewUserService(repo repository.UserRepository, authSvc *auth.Service) *UserService {
	return &UserService{repo: repo, auth: authSvc}
}

func (s *UserService) Register(ctx context.Context, name, username, email, password string) (*domain.User, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and issues a bearer token. Unknown
// username and wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
