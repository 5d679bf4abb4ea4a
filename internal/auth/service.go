package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fdg312/fithub/internal/config"
	"github.com/fdg312/fithub/internal/mailer"
	"github.com/fdg312/fithub/internal/storage"
	"github.com/fdg312/fithub/internal/userctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "user"
	RoleAdmin = userctx.RoleAdmin

	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores bytes past 72
	maxNameLen     = 100
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// Service сервис авторизации
type Service struct {
	config *config.Config
	users  storage.UsersStorage
	mailer mailer.Sender
}

func NewService(cfg *config.Config, users storage.UsersStorage, sender mailer.Sender) *Service {
	return &Service{
		config: cfg,
		users:  users,
		mailer: sender,
	}
}

// Register creates an account and returns an access token for it.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidRequest, maxNameLen)
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d-%d characters", ErrInvalidRequest, minPasswordLen, maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := RoleUser
	if s.config.IsAdminEmail(email) {
		role = RoleAdmin
	}

	user := &storage.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("auth: user registered")
	s.sendWelcome(ctx, user)

	return s.issueToken(user)
}

// Login checks credentials and returns a fresh access token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// Me returns the authenticated user.
func (s *Service) Me(ctx context.Context) (*UserDTO, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// CurrentRole loads the caller's role from storage. Token claims may be
// stale after an admin changes the role.
func (s *Service) CurrentRole(ctx context.Context) (string, error) {
	raw, ok := userctx.GetUserID(ctx)
	if !ok {
		return "", ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *Service) issueToken(user *storage.User) (*TokenResponse, error) {
	ttl := time.Duration(s.config.JWTTTLMinutes) * time.Minute
	token, err := s.generateJWT(user.ID.String(), user.Role, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        ToUserDTO(user),
	}, nil
}

// generateJWT генерация JWT токена
func (s *Service) generateJWT(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.config.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT проверка JWT токена
func (s *Service) VerifyJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) sendWelcome(ctx context.Context, user *storage.User) {
	if s.mailer == nil {
		return
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Welcome to FitHub",
		Body:    fmt.Sprintf("Hi %s,\n\nyour FitHub account is ready. Fill in your body profile to get daily nutrition goals.\n", user.Name),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("auth: welcome email failed")
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidRequest)
	}
	return email, nil
}
