// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/digitalhippo/hippo-backend/internal/access"
	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
	"github.com/digitalhippo/hippo-backend/internal/utils"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", access.ErrUnauthorized)
	ErrEmailNotVerified   = fmt.Errorf("email address is not verified: %w", access.ErrUnauthorized)
)

type AuthService struct {
	engine *Engine
	cfg    *config.Config
}

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterResponse struct {
	Success     bool   `json:"success"`
	SentToEmail string `json:"sentToEmail"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type VerifyEmailResponse struct {
	Success bool `json:"success"`
}

type AuthResponse struct {
	User      store.Record `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt int64        `json:"exp"`
}

func NewAuthService(engine *Engine, cfg *config.Config) *AuthService {
	return &AuthService{
		engine: engine,
		cfg:    cfg,
	}
}

// Register creates an unverified user through the users collection as an
// anonymous actor, so the role always falls back to its default. The users
// pipeline mails the verification token.
func (s *AuthService) Register(ctx context.Context, req *CredentialsRequest) (*RegisterResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.engine.Create(ctx, access.Anonymous, models.CollectionUsers, models.JSONB{
		"email":    email,
		"password": req.Password,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{Success: true, SentToEmail: email}, nil
}

func (s *AuthService) SignIn(ctx context.Context, req *CredentialsRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.findByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}

	hash := models.User{PasswordHash: user.Fields.String("passwordHash")}
	if err := hash.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if verified, _ := user.Fields["_verified"].(bool); !verified {
		return nil, ErrEmailNotVerified
	}

	token, expires, err := utils.GenerateJWT(user.ID, user.Fields.String("email"), user.Fields.String("role"), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	actor := access.Actor{ID: user.ID, Role: models.Role(user.Fields.String("role"))}
	return &AuthResponse{
		User:      s.engine.Redact(actor, user),
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires.Unix(),
	}, nil
}

// VerifyEmail marks the user holding token as verified. Tokens are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, req *VerifyEmailRequest) (*VerifyEmailResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	users, _, err := s.engine.Records().Find(ctx, models.CollectionUsers,
		store.Filter{store.Where("_verificationToken", store.Equals, req.Token)}, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}
	if len(users) == 0 {
		return nil, utils.FieldInvalid("token", "invalid", "verification token is invalid or already used")
	}

	if _, err := s.engine.Update(ctx, access.System, models.CollectionUsers, users[0].ID, models.JSONB{
		"_verified":          true,
		"_verificationToken": "",
	}); err != nil {
		return nil, err
	}
	return &VerifyEmailResponse{Success: true}, nil
}

// Me returns the actor's own user record, or nil for anonymous actors.
func (s *AuthService) Me(ctx context.Context, actor access.Actor) (*store.Record, error) {
	if actor.ID == "" {
		return nil, nil
	}
	user, err := s.engine.FindByID(ctx, actor, models.CollectionUsers, actor.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (store.Record, error) {
	users, _, err := s.engine.Records().Find(ctx, models.CollectionUsers,
		store.Filter{store.Where("email", store.Equals, email)}, store.FindOptions{Limit: 1})
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(users) == 0 {
		return store.Record{}, ErrInvalidCredentials
	}
	return users[0], nil
}
