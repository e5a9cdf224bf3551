package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/domain/user"
	"github.com/pratoshot/pratoshot-api/internal/pkg/email"
	"github.com/pratoshot/pratoshot-api/internal/pkg/jwt"
	"github.com/pratoshot/pratoshot-api/internal/pkg/password"
)

const (
	refreshKeyPrefix = "auth:refresh:"
	resetKeyPrefix   = "auth:reset:"
	resetCodeTTL     = 15 * time.Minute
)

// CreditGranter applies the one-time free credit grant. Implemented by
// the credits service.
type CreditGranter interface {
	GrantInitial(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	users  user.Repository
	grants CreditGranter
	jwt    *jwt.Service
	redis  *redis.Client
	mailer email.Sender
}

func NewService(users user.Repository, grants CreditGranter, jwtService *jwt.Service, redisClient *redis.Client, mailer email.Sender) *Service {
	return &Service{
		users:  users,
		grants: grants,
		jwt:    jwtService,
		redis:  redisClient,
		mailer: mailer,
	}
}

// Register creates the account, applies the free credit grant and issues
// a token pair.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.Profile, *TokenResponse, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.users.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	profile := &user.Profile{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizedEmail,
		PasswordHash: hash,
		Plan:         user.PlanFree,
	}
	if err := s.users.Create(ctx, profile); err != nil {
		return nil, nil, err
	}

	if err := s.grants.GrantInitial(ctx, profile.ID); err != nil {
		// The account exists either way; the grant retries on next login.
		log.Error().Err(err).Str("user_id", profile.ID.String()).Msg("initial credit grant failed")
	}

	// Re-read so the response carries the granted balance.
	if fresh, ferr := s.users.GetByID(ctx, profile.ID); ferr == nil && fresh != nil {
		profile = fresh
	}

	tokens, err := s.issueTokens(ctx, profile.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("user_id", profile.ID.String()).Msg("user registered")
	return profile, tokens, nil
}

// Login verifies credentials and issues a token pair. The free credit
// grant runs here too, covering accounts created before grants existed.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*user.Profile, *TokenResponse, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))

	profile, err := s.users.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil || !password.Verify(req.Password, profile.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.grants.GrantInitial(ctx, profile.ID); err != nil {
		log.Error().Err(err).Str("user_id", profile.ID.String()).Msg("initial credit grant failed")
	} else if fresh, ferr := s.users.GetByID(ctx, profile.ID); ferr == nil && fresh != nil {
		profile = fresh
	}

	tokens, err := s.issueTokens(ctx, profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

// Refresh rotates a refresh token into a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if s.redis != nil {
		key := refreshKeyPrefix + jwt.HashRefreshToken(refreshToken)
		stored, gerr := s.redis.Get(ctx, key).Result()
		if gerr == redis.Nil || (gerr == nil && stored != claims.UserID.String()) {
			return nil, ErrInvalidToken
		}
		if gerr != nil && gerr != redis.Nil {
			log.Warn().Err(gerr).Msg("refresh token lookup failed, relying on JWT validation")
		} else {
			s.redis.Del(ctx, key)
		}
	}

	return s.issueTokens(ctx, claims.UserID)
}

// Logout revokes the presented refresh token. Access tokens simply age
// out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if s.redis == nil || refreshToken == "" {
		return nil
	}
	key := refreshKeyPrefix + jwt.HashRefreshToken(refreshToken)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to revoke refresh token")
	}
	return nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*user.Profile, error) {
	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUserNotFound
	}
	return profile, nil
}

// RequestPasswordReset emails a 6-digit code. The response to the caller
// is identical whether or not the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(emailAddr))

	profile, err := s.users.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	if s.redis == nil {
		log.Warn().Msg("password reset requested but redis is not configured")
		return nil
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, resetKeyPrefix+normalizedEmail, code, resetCodeTTL).Err(); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if s.mailer != nil {
		msg := &email.Message{
			To:          profile.Email,
			ToName:      profile.Name,
			Subject:     "Redefinicao de senha",
			HTMLContent: email.PasswordResetHTML(profile.Name, code),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("user_id", profile.ID.String()).Msg("failed to send reset email")
		}
	}
	return nil
}

// ConfirmPasswordReset checks the code and sets the new password. The
// code is single use.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	normalizedEmail := strings.ToLower(strings.TrimSpace(req.Email))

	if s.redis == nil {
		return ErrInvalidResetCode
	}
	stored, err := s.redis.Get(ctx, resetKeyPrefix+normalizedEmail).Result()
	if err == redis.Nil || (err == nil && stored != req.Code) {
		return ErrInvalidResetCode
	}
	if err != nil {
		return fmt.Errorf("load reset code: %w", err)
	}

	profile, err := s.users.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrInvalidResetCode
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, profile.ID, hash); err != nil {
		return err
	}

	s.redis.Del(ctx, resetKeyPrefix+normalizedEmail)
	log.Info().Str("user_id", profile.ID.String()).Msg("password reset completed")
	return nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		key := refreshKeyPrefix + jwt.HashRefreshToken(refresh)
		if err := s.redis.Set(ctx, key, userID.String(), s.jwt.GetRefreshTTL()).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to persist refresh token")
		}
	}

	return &TokenResponse{Token: access, RefreshToken: refresh}, nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
