package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
	"github.com/redmonkez12/finance-tracker-api/internal/user"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
	maxEmailLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// ErrInvalidCredentials covers both an unknown user and a wrong password
var ErrInvalidCredentials = apperr.New(apperr.KindAuthentication, apperr.CodeInvalidCredentials, "invalid username or password").
	WithStatus(http.StatusBadRequest)

var (
	ErrUsernameRequired   = apperr.Validation(apperr.CodeUsernameRequired, "username is required")
	ErrInvalidUsername    = apperr.Validation(apperr.CodeInvalidUsername, "username must be 3-64 characters of letters, digits, '_', '.' or '-'")
	ErrEmailRequired      = apperr.Validation(apperr.CodeEmailRequired, "email is required")
	ErrInvalidEmailFormat = apperr.Validation(apperr.CodeInvalidEmailFormat, "invalid email format")
	ErrPasswordRequired   = apperr.Validation(apperr.CodePasswordRequired, "password is required")
	ErrPasswordTooShort   = apperr.Validation(apperr.CodePasswordTooShort, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	ErrPasswordTooLong    = apperr.Validation(apperr.CodePasswordTooLong, fmt.Sprintf("password must be at most %d bytes", maxPasswordLength))
)

// UserStore is the credential store the service depends on
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// Session is an authenticated identity plus the token issued for it
type Session struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// Service handles authentication business logic
type Service struct {
	users         UserStore
	hasher        PasswordHasher
	tokenService  TokenService
	tokenDuration time.Duration
	logger        *logging.Logger

	// dummyHash is verified against for unknown usernames. Produced by hasher,
	// so it costs the same as checking a real account.
	dummyHash string
}

func NewService(users UserStore, hasher PasswordHasher, tokenService TokenService, tokenDuration time.Duration, logger *logging.Logger) *Service {
	dummyHash, err := hasher.Hash(equalizerPassword)
	if err != nil {
		logger.Warn("failed to prepare login timing equalizer", "error", err)
	}

	return &Service{
		users:         users,
		hasher:        hasher,
		tokenService:  tokenService,
		tokenDuration: tokenDuration,
		logger:        logger,
		dummyHash:     dummyHash,
	}
}

// Register creates a new user account and issues a session token.
// Uniqueness is left to the store; a collision surfaces as user.ErrDuplicate.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Session, error) {
	username, email, err := validateIdentity(username, email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, username, email, passwordHash)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", newUser.ID)

	return s.issue(newUser)
}

// Login authenticates by username and password
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	existingUser, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same work as a wrong password
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(existingUser)
}

// ChangePassword replaces the password hash after checking the current password.
// Tokens issued before the change stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return ErrPasswordRequired
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, existingUser.PasswordHash) {
		return ErrInvalidCredentials
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func (s *Service) issue(u *user.User) (*Session, error) {
	token, claims, err := s.tokenService.CreateToken(u.ID, u.Email, s.tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &Session{User: u, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// validateIdentity checks the username and normalizes the email to lower case
func validateIdentity(username, email string) (string, string, error) {
	if username == "" {
		return "", "", ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return "", "", ErrInvalidUsername
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", "", ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return "", "", ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", ErrInvalidEmailFormat
	}

	return username, email, nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return ErrPasswordRequired
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
