package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/config"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/services/datamanager"
)

// Login is what a successful sign-in returns to the client.
type Login struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      models.Identity `json:"user"`
}

type Service struct {
	users    map[string]config.User
	tokens   *TokenService
	revoker  Revoker
	sessions *datamanager.Sessions
	log      *zap.Logger
}

func NewService(users []config.User, tokens *TokenService, revoker Revoker, sessions *datamanager.Sessions, log *zap.Logger) *Service {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	byName := make(map[string]config.User, len(users))
	for _, u := range users {
		byName[strings.ToLower(strings.TrimSpace(u.Username))] = u
	}
	return &Service{users: byName, tokens: tokens, revoker: revoker, sessions: sessions, log: log}
}

// HashPassword returns the bcrypt hash to place in the users config.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the credentials, issues a token and opens the matching session.
func (s *Service) Login(username, password string) (*Login, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok || password == "" {
		s.log.Info("login rejected", zap.String("username", username))
		return nil, &apperr.UnauthorizedError{Op: "login"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Info("login rejected", zap.String("username", username))
		return nil, &apperr.UnauthorizedError{Op: "login"}
	}

	id := models.Identity{Username: u.Username, Name: u.Name, Authenticated: true}
	token, claims, err := s.tokens.Sign(id)
	if err != nil {
		return nil, err
	}
	s.sessions.Open(claims.ID, id, claims.ExpiresAt.Time)
	s.log.Info("user signed in", zap.String("username", u.Username))
	return &Login{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: id}, nil
}

// Authenticate resolves a bearer token to its session.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, *datamanager.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, &apperr.UnauthorizedError{Op: "request"}
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, &apperr.UnauthorizedError{Op: "request"}
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return claims, s.sessions.Open(claims.ID, claims.Identity(), exp), nil
}

// Logout revokes the token and tears down its session.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, exp); err != nil {
		return err
	}
	s.sessions.Close(claims.ID)
	s.log.Info("user signed out", zap.String("username", claims.Username))
	return nil
}
