package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength  = 8
	maxPasswordLength  = 72
	referralCodeLength = 8
	referralAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}
	return trimmed, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}

// HashPassword bcrypts a password after validating its length.
func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NewReferralCode returns a random code from an alphabet without look-alike characters.
func NewReferralCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Register creates an account, optionally linked to the referrer owning req.ReferralCode.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest, ipAddress string) (*domain.AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of a-z, 0-9 or _", ErrInvalidInput)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:              uuid.New(),
		Email:           email,
		Username:        username,
		FullName:        strings.TrimSpace(req.FullName),
		PasswordHash:    hash,
		Role:            domain.RoleUser,
		Status:          domain.UserStatusActive,
		NewsletterOptIn: req.NewsletterOptIn,
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := s.repo.FindUserByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, ErrInvalidReferralCode
			}
			return nil, err
		}
		user.ReferredBy = &referrer.ID
	}

	if err := s.createWithReferralCode(ctx, user, ipAddress); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "referred", user.ReferredBy != nil)

	return s.issue(user)
}

// CreateAdmin provisions an administrator account. Used by the admin CLI.
func (s *Service) CreateAdmin(ctx context.Context, email, username, password string) (*domain.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 characters of a-z, 0-9 or _", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.New(),
		Email:        normalized,
		Username:     username,
		FullName:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := s.createWithReferralCode(ctx, user, ""); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) createWithReferralCode(ctx context.Context, user *domain.User, ipAddress string) error {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		code, err := NewReferralCode()
		if err != nil {
			return err
		}
		user.ReferralCode = code
		err = s.repo.CreateUser(ctx, user, ipAddress)
		if errors.Is(err, store.ErrReferralCodeTaken) {
			continue
		}
		return err
	}
	return fmt.Errorf("could not allocate a unique referral code after %d attempts", attempts)
}

func (s *Service) issue(user *domain.User) (*domain.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest, ipAddress string) (*domain.AuthResponse, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, ErrAccountSuspended
	}

	if err := s.repo.RecordActivity(ctx, domain.ActivityLog{UserID: user.ID, Action: "login", IPAddress: ipAddress}); err != nil {
		s.logger.Warn("failed to record login activity", "user_id", user.ID, "error", err)
	}
	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.repo.RecordActivity(ctx, domain.ActivityLog{UserID: userID, Action: "password_changed"}); err != nil {
		s.logger.Warn("failed to record password change", "user_id", userID, "error", err)
	}
	return nil
}

// ForgotPassword issues a reset token when the address belongs to an active account. It
// reports success either way so the endpoint cannot be used to discover accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Status != domain.UserStatusActive {
		return nil
	}

	raw, err := newResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.settings.PasswordResetTTL)
	if err := s.repo.CreatePasswordReset(ctx, user, hashResetToken(raw), raw, expiresAt); err != nil {
		return err
	}
	s.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return store.ErrResetTokenInvalid
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	userID, err := s.repo.ResetPassword(ctx, hashResetToken(token), hash, s.now())
	if err != nil {
		return err
	}
	s.logger.Info("password reset completed", "user_id", userID)
	return nil
}
