package content

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

type Tag struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

func (Tag) TableName() string { return "tags" }

// Article is stored in "articles". Listing queries leave Content empty and
// Tags nil; only the single-article reads hydrate both join sets.
type Article struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Content       string    `json:"content,omitempty"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage string    `json:"featured_image"`
	Author        string    `json:"author"`
	AuthorImage   string    `json:"author_image"`
	AuthorRole    string    `json:"author_role"`
	PublishedAt   time.Time `gorm:"not null;index" json:"published_at"`
	ReadingTime   int       `gorm:"not null;default:5" json:"reading_time"`
	IsFeatured    bool      `gorm:"not null;default:false;index" json:"is_featured"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Categories []Category `gorm:"many2many:article_categories" json:"categories"`
	Tags       []Tag      `gorm:"many2many:article_tags" json:"tags,omitempty"`
}

func (Article) TableName() string { return "articles" }

// ArticleCategory and ArticleTag are existence-only join rows. The
// composite primary key rules out duplicate pairs.
type ArticleCategory struct {
	ArticleID  int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"primaryKey;index"`
}

func (ArticleCategory) TableName() string { return "article_categories" }

type ArticleTag struct {
	ArticleID int64 `gorm:"primaryKey"`
	TagID     int64 `gorm:"primaryKey;index"`
}

func (ArticleTag) TableName() string { return "article_tags" }

// RelatedArticle is a directed suggestion link. The server only reads and
// deletes these; portalctl seed writes them.
type RelatedArticle struct {
	ArticleID        int64 `gorm:"primaryKey" json:"article_id"`
	RelatedArticleID int64 `gorm:"primaryKey;index" json:"related_article_id"`
}

func (RelatedArticle) TableName() string { return "related_articles" }

// Stats backs the admin dashboard.
type Stats struct {
	Articles   int64 `json:"articles"`
	Categories int64 `json:"categories"`
	Tags       int64 `json:"tags"`
}

// Page is a limit/offset window. Zero values mean "first page, default size".
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
