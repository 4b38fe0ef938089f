package services

import (
	"fmt"

	"gorm.io/gorm"

	"edu-fund-system/models"
)

// PoolAccountant owns the funding pool balance invariants. Balance
// changes go through a single conditional UPDATE so two claims racing
// on a balance sufficient for only one cannot both win.
type PoolAccountant struct {
	DB *gorm.DB
}

func NewPoolAccountant(db *gorm.DB) *PoolAccountant {
	return &PoolAccountant{DB: db}
}

// ApplyClaim decrements poolID's remaining balance by amount iff the
// current balance covers it. Zero affected rows means the pool could
// not fund the claim; nothing is mutated in that case.
func (a *PoolAccountant) ApplyClaim(tx *gorm.DB, poolID string, amount float64) error {
	res := tx.Model(&models.FundingPool{}).
		Where("id = ? AND remaining_balance >= ?", poolID, amount).
		UpdateColumn("remaining_balance", gorm.Expr("remaining_balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("decrement pool balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPoolInsufficientFunds
	}
	return nil
}

// CountClaims derives the pool's participant count from its claim
// records; no separate counter column is kept.
func (a *PoolAccountant) CountClaims(tx *gorm.DB, poolID string) (int64, error) {
	var claims int64
	if err := tx.Model(&models.Reward{}).Where("pool_id = ?", poolID).Count(&claims).Error; err != nil {
		return 0, fmt.Errorf("count pool claims: %w", err)
	}
	return claims, nil
}
