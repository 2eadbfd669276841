package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/wallet"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrNotVerified        = errors.New("account not verified")
	ErrUserNotFound       = errors.New("user not found")
)

const tokenTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)

	// Verify marks the account verified and provisions one zero-balance
	// wallet per supported currency. The one-time code itself is checked
	// by the upstream mail collaborator.
	Verify(ctx context.Context, userID uint) ([]models.Wallet, error)

	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(userID uint) error
	GetUserTokenVersion(userID uint) (int, error)
}

type service struct {
	users     repositories.UserRepository
	wallets   wallet.Service
	jwtSecret string
	log       *logrus.Logger
}

func NewService(users repositories.UserRepository, wallets wallet.Service, jwtSecret string, log *logrus.Logger) Service {
	if users == nil {
		panic("user repository is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{
		users:     users,
		wallets:   wallets,
		jwtSecret: jwtSecret,
		log:       log,
	}
}

func (s *service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

func (s *service) Verify(ctx context.Context, userID uint) ([]models.Wallet, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Verified {
		return nil, ErrAlreadyVerified
	}

	wallets, err := s.wallets.CreateWalletsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.Verified = true
	user.VerifiedAt = &now
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}

	return wallets, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("login failed: incorrect password")
		return nil, "", ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, "", ErrNotVerified
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

func (s *service) Logout(userID uint) error {
	return s.users.IncrementTokenVersion(userID)
}

func (s *service) GetUserTokenVersion(userID uint) (int, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

func (s *service) generateToken(user *models.User) (string, error) {
	claims := &models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
