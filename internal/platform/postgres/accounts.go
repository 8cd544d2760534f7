package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hirosato/construction-erp/internal/domain/account"
	commonErrors "github.com/hirosato/construction-erp/internal/domain/errors"
)

func (s *Store) CreateAccount(ctx context.Context, acc *account.Account) error {
	row := newAccountRow(acc)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&accountRow{}).Where("code = ?", acc.Code).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return commonErrors.NewDuplicateCodeError("accountCode", acc.Code)
		}
		return tx.Create(&row).Error
	})
	if isUniqueViolation(err) {
		return commonErrors.NewDuplicateCodeError("accountCode", acc.Code)
	}
	if err != nil {
		return s.passThrough("failed to create account", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	var row accountRow
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&row).Error
	if isNotFound(err) {
		return nil, commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", accountID))
	}
	if err != nil {
		return nil, s.internal("failed to get account", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAccounts(ctx context.Context, filter account.Filter) ([]*account.Account, error) {
	q := s.db.WithContext(ctx).Model(&accountRow{})
	if filter.AccountType != "" {
		q = q.Where("account_type = ?", string(filter.AccountType))
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}

	var rows []accountRow
	if err := q.Order("code").Find(&rows).Error; err != nil {
		return nil, s.internal("failed to list accounts", err)
	}

	result := make([]*account.Account, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

// UpdateAccount writes the descriptive columns. Balance moves only through posting.
func (s *Store) UpdateAccount(ctx context.Context, acc *account.Account) error {
	row := newAccountRow(acc)
	res := s.db.WithContext(ctx).Model(&accountRow{}).
		Where("id = ?", acc.AccountID).
		Updates(map[string]interface{}{
			"name":        row.Name,
			"description": row.Description,
			"parent_id":   row.ParentID,
			"is_active":   row.IsActive,
			"updated_at":  row.UpdatedAt,
		})
	if res.Error != nil {
		return s.internal("failed to update account", res.Error)
	}
	if res.RowsAffected == 0 {
		return commonErrors.NewNotFoundError(fmt.Sprintf("account %s not found", acc.AccountID))
	}
	return nil
}
