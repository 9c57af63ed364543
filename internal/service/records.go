package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// Category operations
func (s *DefaultService) CreateCategory(ctx context.Context, userID int64, req models.CreateCategoryRequest) (*models.Category, error) {
	name, err := cleanName("name", req.Name)
	if err != nil {
		return nil, err
	}
	typ, err := parseCategoryType(req.Type)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateCategory(ctx, &models.Category{UserID: userID, Name: name, Type: typ})
}

func (s *DefaultService) GetCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	return s.repo.GetCategory(ctx, userID, id)
}

func (s *DefaultService) ListCategories(ctx context.Context, userID int64, q models.ListQuery) ([]models.Category, error) {
	page, err := parsePage(q)
	if err != nil {
		return nil, err
	}

	var typ *models.CategoryType
	if strings.TrimSpace(q.Type) != "" {
		t, err := parseCategoryType(q.Type)
		if err != nil {
			return nil, err
		}
		typ = &t
	}

	return s.repo.ListCategories(ctx, userID, typ, page)
}

func (s *DefaultService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}

// Income and expense operations
func (s *DefaultService) CreateRecord(ctx context.Context, kind models.RecordKind, userID int64, req models.CreateRecordRequest) (*models.MoneyRecord, error) {
	if err := validateCategoryID(req.CategoryID); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount, true)
	if err != nil {
		return nil, err
	}
	if req.Date == nil {
		return nil, apperr.Validation("date is required")
	}
	date, err := parseDate("date", *req.Date)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.CreateRecord(ctx, kind, &models.MoneyRecord{
		UserID:      userID,
		CategoryID:  *req.CategoryID,
		Amount:      amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Record created",
		zap.String("kind", string(kind)),
		zap.Int64("user_id", userID),
		zap.Int64("id", record.ID),
	)
	return record, nil
}

func (s *DefaultService) GetRecord(ctx context.Context, kind models.RecordKind, userID, id int64) (*models.MoneyRecord, error) {
	return s.repo.GetRecord(ctx, kind, userID, id)
}

func (s *DefaultService) ListRecords(ctx context.Context, kind models.RecordKind, userID int64, q models.ListQuery) ([]models.MoneyRecord, error) {
	page, err := parsePage(q)
	if err != nil {
		return nil, err
	}
	start, end, err := parseDateRange(q)
	if err != nil {
		return nil, err
	}

	filter := models.RecordFilter{StartDate: start, EndDate: end}
	if strings.TrimSpace(q.CategoryID) != "" {
		categoryID, err := ParseID("categoryId", q.CategoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &categoryID
	}

	return s.repo.ListRecords(ctx, kind, userID, filter, page)
}

// UpdateRecord applies only the fields present in req.
func (s *DefaultService) UpdateRecord(ctx context.Context, kind models.RecordKind, userID, id int64, req models.UpdateRecordRequest) (*models.MoneyRecord, error) {
	var upd models.RecordUpdate

	if req.CategoryID != nil {
		if err := validateCategoryID(req.CategoryID); err != nil {
			return nil, err
		}
		upd.CategoryID = req.CategoryID
	}
	if req.Amount != nil {
		amount, err := parseAmount("amount", req.Amount, true)
		if err != nil {
			return nil, err
		}
		upd.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		upd.Date = &date
	}
	upd.Description = req.Description

	if upd.CategoryID == nil && upd.Amount == nil && upd.Date == nil && !upd.Description.Set {
		return nil, noFields()
	}

	return s.repo.UpdateRecord(ctx, kind, userID, id, upd)
}

func (s *DefaultService) DeleteRecord(ctx context.Context, kind models.RecordKind, userID, id int64) error {
	return s.repo.DeleteRecord(ctx, kind, userID, id)
}
