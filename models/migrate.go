package models

import "gorm.io/gorm"

// AutoMigrate creates/updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Quest{},
		&Company{},
		&FundingPool{},
		&CompletedQuest{},
		&Reward{},
	)
}
