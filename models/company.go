package models

import "time"

// Company funds pools for its courses. WalletAddress is the ledger
// account the pool contract debits when the pool is created on-chain.
type Company struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	Password      string    `gorm:"not null" json:"-"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	FundingPools []FundingPool `gorm:"foreignKey:CompanyID" json:"funding_pools,omitempty"`
}
