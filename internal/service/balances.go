package service

import (
	"context"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// Balance snapshot operations. Amounts may be negative.
func (s *DefaultService) CreateBalance(ctx context.Context, userID int64, req models.CreateBalanceRequest) (*models.Balance, error) {
	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		return nil, err
	}
	currency, err := parseCurrency(req.Currency)
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

	return s.repo.CreateBalance(ctx, &models.Balance{
		UserID:   userID,
		Amount:   amount,
		Currency: currency,
		Date:     date,
	})
}

func (s *DefaultService) GetBalance(ctx context.Context, userID, id int64) (*models.Balance, error) {
	return s.repo.GetBalance(ctx, userID, id)
}

func (s *DefaultService) ListBalances(ctx context.Context, userID int64, q models.ListQuery) ([]models.Balance, error) {
	page, err := parsePage(q)
	if err != nil {
		return nil, err
	}
	start, end, err := parseDateRange(q)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBalances(ctx, userID, models.BalanceFilter{StartDate: start, EndDate: end}, page)
}

func (s *DefaultService) LatestBalance(ctx context.Context, userID int64) (*models.Balance, error) {
	balance, err := s.repo.LatestBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, apperr.NotFound("balance")
	}
	return balance, nil
}

func (s *DefaultService) UpdateBalance(ctx context.Context, userID, id int64, req models.UpdateBalanceRequest) (*models.Balance, error) {
	var upd models.BalanceUpdate

	if req.Amount != nil {
		amount, err := parseAmount("amount", req.Amount, false)
		if err != nil {
			return nil, err
		}
		upd.Amount = &amount
	}
	if req.Currency != nil {
		currency, err := parseCurrency(*req.Currency)
		if err != nil {
			return nil, err
		}
		upd.Currency = &currency
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		upd.Date = &date
	}
	if upd.Amount == nil && upd.Currency == nil && upd.Date == nil {
		return nil, noFields()
	}

	return s.repo.UpdateBalance(ctx, userID, id, upd)
}

func (s *DefaultService) DeleteBalance(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteBalance(ctx, userID, id)
}
