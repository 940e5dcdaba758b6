package auth

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}); err != nil {
		return fmt.Errorf("auto-migrate auth tables: %w", err)
	}
	return nil
}
