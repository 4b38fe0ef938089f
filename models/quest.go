package models

import (
	"time"

	"gorm.io/gorm"
)

// QuestDifficulty tags how demanding a quest's content is
type QuestDifficulty string

const (
	QuestDifficultyBeginner     QuestDifficulty = "beginner"
	QuestDifficultyIntermediate QuestDifficulty = "intermediate"
	QuestDifficultyAdvanced     QuestDifficulty = "advanced"
)

// Quest is an educational task learners complete for a token reward.
// Reward is the platform-default payout; pool-funded quests source their
// payout from the pool's RewardPerStudent instead.
type Quest struct {
	ID          string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Slug        string          `gorm:"index" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Reward      float64         `gorm:"not null" json:"reward"`
	Difficulty  QuestDifficulty `gorm:"not null;default:'beginner'" json:"difficulty"`
	Content     string          `gorm:"type:text" json:"content"`
	MaterialURL string          `gorm:"type:text" json:"material_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
