package models

import "time"

// User is a learner identified by their ledger wallet address.
// Created lazily the first time a wallet completes a quest.
type User struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`

	CompletedQuests []CompletedQuest `gorm:"foreignKey:UserID" json:"completed_quests,omitempty"`
}
