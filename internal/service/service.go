package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/auth"
	"github.com/rongwang/finance-server/internal/models"
	"github.com/rongwang/finance-server/internal/repository"
)

// Service defines all the business logic operations. Every method that
// touches user data takes the authenticated user's id.
type Service interface {
	// Authentication
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	VerifyToken(token string) (int64, error)

	// Users
	Me(ctx context.Context, userID int64) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.PublicUser, error)
	DeleteAccount(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context, userID int64) ([]models.UserOverview, error)

	// Categories
	CreateCategory(ctx context.Context, userID int64, req models.CreateCategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, userID int64, q models.ListQuery) ([]models.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error

	// Incomes and expenses
	CreateRecord(ctx context.Context, kind models.RecordKind, userID int64, req models.CreateRecordRequest) (*models.MoneyRecord, error)
	GetRecord(ctx context.Context, kind models.RecordKind, userID, id int64) (*models.MoneyRecord, error)
	ListRecords(ctx context.Context, kind models.RecordKind, userID int64, q models.ListQuery) ([]models.MoneyRecord, error)
	UpdateRecord(ctx context.Context, kind models.RecordKind, userID, id int64, req models.UpdateRecordRequest) (*models.MoneyRecord, error)
	DeleteRecord(ctx context.Context, kind models.RecordKind, userID, id int64) error

	// Balance snapshots
	CreateBalance(ctx context.Context, userID int64, req models.CreateBalanceRequest) (*models.Balance, error)
	GetBalance(ctx context.Context, userID, id int64) (*models.Balance, error)
	ListBalances(ctx context.Context, userID int64, q models.ListQuery) ([]models.Balance, error)
	LatestBalance(ctx context.Context, userID int64) (*models.Balance, error)
	UpdateBalance(ctx context.Context, userID, id int64, req models.UpdateBalanceRequest) (*models.Balance, error)
	DeleteBalance(ctx context.Context, userID, id int64) error

	// Aggregation
	Summarize(ctx context.Context, userID int64, startDate, endDate string) (*models.SummaryResponse, error)
	TotalsByCategory(ctx context.Context, kind models.RecordKind, userID int64, startDate, endDate string) ([]models.CategoryTotal, error)

	Ping(ctx context.Context) error
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo   repository.Repository
	tokens *auth.TokenManager
	hasher auth.PasswordHasher
	logger *zap.Logger
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, tokens *auth.TokenManager, hasher auth.PasswordHasher, logger *zap.Logger) Service {
	return &DefaultService{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

func (s *DefaultService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
