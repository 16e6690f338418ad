package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/thereayou/pollchat/internal/chat"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Credentials is what a CredentialStore keeps for a password account.
type Credentials struct {
	UserID       uuid.UUID
	PasswordHash string
}

// CredentialStore persists password accounts. CreateUser returns
// chat.ErrUsernameTaken or ErrEmailTaken on conflicts; FindCredentials returns
// chat.ErrUserNotFound for unknown emails.
type CredentialStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error)
	FindCredentials(ctx context.Context, email string) (Credentials, error)
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (uuid.UUID, error)
	Verify(ctx context.Context, req LoginRequest) (uuid.UUID, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authService struct {
	store    CredentialStore
	validate *validator.Validate
	cost     int
}

func NewAuthService(store CredentialStore) AuthService {
	return &authService{store: store, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// ValidateRegistration checks the request without touching storage.
func ValidateRegistration(v *validator.Validate, req RegisterRequest) error {
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidRegistration, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (uuid.UUID, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateRegistration(s.validate, req); err != nil {
		return uuid.Nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	return s.store.CreateUser(ctx, req.Username, req.Email, string(hash))
}

func (s *authService) Verify(ctx context.Context, req LoginRequest) (uuid.UUID, error) {
	creds, err := s.store.FindCredentials(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, chat.ErrUserNotFound) {
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, err
	}

	if creds.PasswordHash == "" {
		return uuid.Nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return creds.UserID, nil
}
