// Package services holds the business rules. Handlers call services;
// services call repository interfaces and never see http types or SQL.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/email"
	"github.com/vignesh0909/adbond.net-sub002/pkg/logger"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/repository"
)

var authLog = logger.Component("auth")

const (
	bcryptCost = 12

	resetTokenTTL  = 20 * time.Minute
	resetCooldown  = 90 * time.Second
	tokenIssuer    = "adbond"
	refreshTokenSz = 32
)

// AuthService covers accounts, tokens and password recovery.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	// Logout deletes the session. Unknown tokens are not an error.
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	// Session reports when the caller's access token expires.
	Session(user *models.User, claims *models.TokenClaims) *models.SessionInfo
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error
	// ForgotPassword emails a reset link unless one was sent within the
	// cooldown. Unknown addresses, cooldowns and mail failures all look
	// like success to the caller.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
	IsBanned(ctx context.Context, userID string) (bool, error)
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository
	banRepo     repository.BanRepository
	mailer      email.Sender
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	now         func() time.Time
}

// NewAuthService builds the auth service. mailer may be nil when no email
// provider is configured; password reset requests are then only logged.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	banRepo repository.BanRepository,
	mailer email.Sender,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		banRepo:     banRepo,
		mailer:      mailer,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
		now:         time.Now,
	}
}

// Register creates the account and signs the user in. The first account
// on a fresh install becomes admin.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       models.UserStatusOffline,
	}
	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}
	if count == 0 {
		user.Role = models.RoleAdmin
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	authLog.Info().Str("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("user registered")
	return s.generateTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.findByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			metrics.RecordLogin("invalid")
			return nil, fmt.Errorf("%w: invalid credentials", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.RecordLogin("invalid")
		return nil, fmt.Errorf("%w: invalid credentials", pkg.ErrUnauthorized)
	}

	banned, err := s.banRepo.Exists(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if banned {
		metrics.RecordLogin("banned")
		return nil, fmt.Errorf("%w: account is banned", pkg.ErrForbidden)
	}

	now := s.now().UTC()
	if err := s.userRepo.TouchLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	metrics.RecordLogin("success")
	return s.generateTokens(ctx, user)
}

func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if strings.Contains(identifier, "@") {
		return s.userRepo.GetByEmail(ctx, identifier)
	}
	return s.userRepo.GetByUsername(ctx, identifier)
}

// Refresh rotates the session: the old refresh token stops working.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", pkg.ErrBadRequest)
	}

	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	banned, err := s.banRepo.Exists(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, fmt.Errorf("%w: account is banned", pkg.ErrForbidden)
	}

	return s.generateTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessionRepo.DeleteByRefreshToken(ctx, refreshToken)
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", pkg.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) Session(user *models.User, claims *models.TokenClaims) *models.SessionInfo {
	info := &models.SessionInfo{User: user}
	if claims != nil && claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
		info.ExpiresIn = max(int64(info.ExpiresAt.Sub(s.now()).Seconds()), 0)
	}
	return info
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}
	if req.CurrentPassword == req.NewPassword {
		return fmt.Errorf("%w: new password must be different from current password", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	now := s.now().UTC()
	latest, err := s.resetRepo.GetLatestByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	if latest != nil && now.Sub(latest.CreatedAt) < resetCooldown {
		authLog.Debug().Str("user_id", user.ID).Msg("password reset skipped, cooldown active")
		return nil
	}

	token, err := randomHex(refreshTokenSz)
	if err != nil {
		return err
	}

	if err := s.resetRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}
	if err := s.resetRepo.Create(ctx, &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	if s.mailer == nil {
		authLog.Warn().Str("user_id", user.ID).Msg("password reset requested but email is not configured")
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		authLog.Error().Err(err).Str("user_id", user.ID).Msg("failed to send password reset email")
	}
	return nil
}

// ResetPassword sets a new password from an emailed token and signs the
// user out everywhere.
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	tok, err := s.resetRepo.GetByTokenHash(ctx, hashToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrBadRequest)
		}
		return err
	}
	if s.now().After(tok.ExpiresAt) {
		_ = s.resetRepo.DeleteByUserID(ctx, tok.UserID)
		return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, tok.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.resetRepo.DeleteByUserID(ctx, tok.UserID); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByUserID(ctx, tok.UserID); err != nil {
		return err
	}

	authLog.Info().Str("user_id", tok.UserID).Msg("password reset, all sessions revoked")
	return nil
}

func (s *authService) IsBanned(ctx context.Context, userID string) (bool, error) {
	return s.banRepo.Exists(ctx, userID)
}

func (s *authService) generateTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	now := s.now()
	expiresAt := now.Add(s.accessExp)

	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := randomHex(refreshTokenSz)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.refreshExp),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.UTC().Truncate(time.Second),
		ExpiresIn:    int64(s.accessExp.Seconds()),
		User:         user,
	}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
