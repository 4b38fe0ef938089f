package models

import "time"

// CompletedQuest = learner finished a quest. One row per (user, quest);
// the composite unique index is the authoritative duplicate guard under
// concurrent completion requests. RewardClaimed flips false -> true
// exactly once, when the claim is durably confirmed.
type CompletedQuest struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;uniqueIndex:idx_completed_user_quest" json:"user_id"`
	QuestID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_completed_user_quest" json:"quest_id"`
	RewardClaimed bool      `gorm:"not null;default:false" json:"reward_claimed"`
	CompletedAt   time.Time `json:"completed_at" gorm:"autoCreateTime"`

	Quest Quest `gorm:"foreignKey:QuestID" json:"quest,omitempty"`
}
