package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/auth"
	"github.com/rongwang/finance-server/internal/models"
	"github.com/rongwang/finance-server/internal/utils"
)

const invalidCredentials = "invalid credentials"

// Authentication methods
func (s *DefaultService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	name, err := cleanName("name", req.Name)
	if err != nil {
		return nil, err
	}

	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, apperr.Conflict("email already registered")
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	// The unique index still decides a concurrent registration race
	user := &models.User{Email: email, Name: name, PasswordHash: hashedPassword}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("email", utils.Redact(email)))
	return s.issue(user)
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// Unknown email and wrong password look the same to the caller
	if user == nil || !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Debug("Login rejected", zap.String("email", utils.Redact(email)))
		return nil, apperr.Unauthenticated(invalidCredentials)
	}

	return s.issue(user)
}

func (s *DefaultService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresIn: int(s.tokens.Duration().Seconds()),
		User:      user.Public(),
	}, nil
}

// VerifyToken returns the user id carried by a valid, unexpired token.
func (s *DefaultService) VerifyToken(token string) (int64, error) {
	userID, err := s.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return 0, apperr.Unauthenticated("token has expired")
		}
		return 0, apperr.Unauthenticated("invalid token")
	}
	return userID, nil
}

// Me reports NotFound when the token outlived its user.
func (s *DefaultService) Me(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	public := user.Public()
	return &public, nil
}

func (s *DefaultService) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.PublicUser, error) {
	var upd models.UserUpdate

	if req.Name != nil {
		name, err := cleanName("name", *req.Name)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperr.Internal("hash password", err)
		}
		upd.PasswordHash = &hashedPassword
	}
	if upd.Name == nil && upd.PasswordHash == nil {
		return nil, noFields()
	}

	user, err := s.repo.UpdateUser(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// DeleteAccount removes the user together with everything the user owns.
func (s *DefaultService) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.Int64("user_id", userID))
	return nil
}

// ListUsers returns the caller's own account with its categories and latest
// balance. Other users are never listed.
func (s *DefaultService) ListUsers(ctx context.Context, userID int64) ([]models.UserOverview, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}

	categories, err := s.repo.ListCategories(ctx, userID, nil, models.Page{})
	if err != nil {
		return nil, fmt.Errorf("list categories for overview: %w", err)
	}
	latest, err := s.repo.LatestBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest balance for overview: %w", err)
	}

	return []models.UserOverview{{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		CreatedAt:     user.CreatedAt,
		Categories:    categories,
		LatestBalance: latest,
	}}, nil
}
