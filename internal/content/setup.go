package content

import (
	"log"

	"gorm.io/gorm"
)

// Migrate creates the content tables. Join tables are registered first so
// AutoMigrate builds them with composite keys and foreign keys to both
// sides.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Article{}, "Categories", &ArticleCategory{}); err != nil {
		return err
	}
	if err := db.SetupJoinTable(&Article{}, "Tags", &ArticleTag{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&Category{},
		&Tag{},
		&Article{},
		&RelatedArticle{},
	); err != nil {
		return err
	}

	log.Println("[content] tables migrated")
	return nil
}
