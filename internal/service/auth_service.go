package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"viralpik/internal/middleware"
	"viralpik/internal/models"
	"viralpik/internal/observability"
	"viralpik/internal/repository"
	"viralpik/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL bounds how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

// Mailer sends plain-text mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AuthService registers accounts and issues, refreshes and revokes tokens.
type AuthService struct {
	profileRepo repository.ProfileRepository
	tokens      *middleware.Tokens
	rdb         *redis.Client
	mailer      Mailer
	resetURL    string
}

type SignupInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,strong_password"`
	IsCreator bool   `json:"is_creator"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup, login and refresh.
type AuthResult struct {
	Token string          `json:"token"`
	User  *models.Profile `json:"user"`
}

func NewAuthService(
	profileRepo repository.ProfileRepository,
	tokens *middleware.Tokens,
	rdb *redis.Client,
	mailer Mailer,
	publicBaseURL string,
) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		tokens:      tokens,
		rdb:         rdb,
		mailer:      mailer,
		resetURL:    strings.TrimRight(publicBaseURL, "/") + "/reset-password?token=",
	}
}

func (s *AuthService) issue(profile *models.Profile) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(profile.ID, profile.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: profile}, nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = validation.NormalizeUsername(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.profileRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}
	taken, err := s.profileRepo.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	profile := &models.Profile{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		IsCreator: in.IsCreator,
		Tier:      models.TierFree,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	return s.issue(profile)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.issue(profile)
}

// Authenticate verifies a raw token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*middleware.TokenClaims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, middleware.ErrMissingToken) {
			return nil, models.NewUnauthorizedError("Authorization required")
		}
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if s.revoked(ctx, claims.JTI) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

func (s *AuthService) revoked(ctx context.Context, jti string) bool {
	if jti == "" || s.rdb == nil {
		return false
	}
	n, err := s.rdb.Exists(ctx, "blacklist:"+jti).Result()
	return err == nil && n > 0
}

// Revoke blacklists the token until it would have expired anyway.
func (s *AuthService) Revoke(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil || claims.JTI == "" || s.rdb == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, "blacklist:"+claims.JTI, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Refresh issues a new token for the holder of a valid one and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	claims, err := s.Authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	res, err := s.issue(profile)
	if err != nil {
		return nil, err
	}
	if err := s.Revoke(ctx, claims); err != nil {
		return nil, err
	}
	return res, nil
}

func resetKey(token string) string {
	return "pwreset:" + token
}

// RequestPasswordReset stores a single-use reset token and mails the link.
// Unknown emails succeed silently. The token is returned for callers that
// deliver it some other way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if s.rdb == nil {
		return "", models.NewInternalError(errors.New("password reset requires redis"))
	}
	profile, err := s.profileRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", models.NewInternalError(err)
	}
	token := hex.EncodeToString(buf)
	if err := s.rdb.Set(ctx, resetKey(token), profile.ID, ResetTokenTTL).Err(); err != nil {
		return "", models.NewInternalError(err)
	}

	if s.mailer != nil {
		to := profile.Email
		body := fmt.Sprintf("Reset your ViralPik password: %s%s\n\nThe link expires in one hour.", s.resetURL, token)
		observability.RunBestEffort(ctx, "password_reset_mail", 30*time.Second,
			map[string]interface{}{"user_id": profile.ID},
			func(ctx context.Context) error {
				return s.mailer.Send(ctx, to, "Reset your password", body)
			})
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if s.rdb == nil {
		return models.NewInternalError(errors.New("password reset requires redis"))
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	raw, err := s.rdb.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return models.NewValidationError("Reset link is invalid or expired")
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return models.NewInternalError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.profileRepo.UpdatePassword(ctx, uint(userID), string(hashed))
}
