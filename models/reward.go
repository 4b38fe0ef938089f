package models

import "time"

// Reward is the append-only receipt of one fulfilled claim. PoolID nil
// means the payout came from the platform treasury. Rows are never
// mutated after creation, even if the funding pool is later closed.
type Reward struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Wallet    string    `gorm:"index;not null" json:"wallet"`
	QuestID   string    `gorm:"type:uuid;not null" json:"quest_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	TxHash    *string   `json:"tx_hash,omitempty"`
	PoolID    *string   `gorm:"type:uuid;index" json:"pool_id,omitempty"`
	ClaimedAt time.Time `json:"claimed_at" gorm:"autoCreateTime"`
}
