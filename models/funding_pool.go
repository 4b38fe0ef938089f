package models

import "time"

// FundingPool is a company-funded budget backing one course quest.
// Invariant: 0 <= RemainingBalance <= TotalFund. Pools are deactivated on
// close, never hard-deleted, so historical claim records keep a valid
// pool reference.
type FundingPool struct {
	ID               string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CompanyID        string    `gorm:"type:uuid;not null;index" json:"company_id"`
	QuestID          *string   `gorm:"type:uuid;index" json:"quest_id,omitempty"`
	CourseName       string    `gorm:"not null" json:"course_name"`
	TotalFund        float64   `gorm:"not null" json:"total_fund"`
	RewardPerStudent float64   `gorm:"not null" json:"reward_per_student"`
	MaxParticipants  int       `gorm:"not null" json:"max_participants"`
	RemainingBalance float64   `gorm:"not null" json:"remaining_balance"`
	Active           bool      `gorm:"not null;default:true" json:"active"`
	ContractAddress  string    `json:"contract_address"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Quest   *Quest  `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
}
