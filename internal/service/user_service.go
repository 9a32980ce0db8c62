package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/thisissairam/vidoo-backend/internal/domain"
	"github.com/thisissairam/vidoo-backend/internal/repository"
	"github.com/thisissairam/vidoo-backend/lib/logger/sl"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

type UserService struct {
	users repository.UserRepository
	log   *slog.Logger
}

func NewUserService(users repository.UserRepository, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, log: log}
}

func (s *UserService) Register(ctx context.Context, name string, username string, password string) (*domain.User, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	if name == "" || username == "" || password == "" {
		return nil, errors.New("name, username and password are required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(name, username, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		log.Error("failed to create user", sl.Err(err))
		return nil, err
	}

	log.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

// Login verifies the credentials and issues a fresh session token
// stored on the user record.
func (s *UserService) Login(ctx context.Context, username string, password string) (*domain.User, error) {
	const op = "service.user.login"
	log := s.log.With(slog.String("op", op), slog.String("username", username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Info("password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	user.Token = token
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		log.Error("failed to store token", sl.Err(err))
		return nil, err
	}

	log.Info("user logged in", "user_id", user.ID.String())
	return user, nil
}

func newToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
