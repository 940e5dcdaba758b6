package content

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/slug"
	"github.com/go-playground/validator/v10"
)

const DefaultReadingTime = 5

// ArticleCommand is a parsed, validated article form. CategoryIDs and
// TagIDs are the complete desired sets, free of duplicates.
type ArticleCommand struct {
	Title         string     `form:"title" validate:"required,max=300"`
	Slug          string     `form:"slug" validate:"required,max=200,slug"`
	Content       string     `form:"content"`
	Excerpt       string     `form:"excerpt" validate:"max=1000"`
	FeaturedImage string     `form:"featured_image" validate:"max=2048"`
	Author        string     `form:"author" validate:"max=200"`
	AuthorImage   string     `form:"author_image" validate:"max=2048"`
	AuthorRole    string     `form:"author_role" validate:"max=200"`
	ReadingTime   int        `form:"reading_time" validate:"min=1,max=600"`
	IsFeatured    bool       `form:"is_featured"`
	PublishedAt   *time.Time `form:"published_at"`
	CategoryIDs   []int64    `form:"categories"`
	TagIDs        []int64    `form:"tags"`
}

type CategoryCommand struct {
	Name        string `form:"name" validate:"required,max=100"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description" validate:"max=1000"`
}

type TagCommand struct {
	Name string `form:"name" validate:"required,max=100"`
	Slug string `form:"slug" validate:"required,max=100,slug"`
}

// ValidationError lists the rejected form fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

// Unwrap makes errors.Is(err, apperr.Validation) and apperr.KindOf work.
func (e *ValidationError) Unwrap() error {
	return apperr.E(apperr.Validation, "content.validate", "invalid form input", nil)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.Valid(fl.Field().String())
	})
	return v
}

func check(cmd any, fields map[string]string) error {
	if err := validate.Struct(cmd); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = message(fe)
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "slug":
		return "must contain only lowercase letters, numbers and single hyphens"
	default:
		return "is invalid"
	}
}

// ParseArticleForm reads an article form. An empty reading_time means the
// default; anything else must be a positive integer. An empty slug is
// derived from the title.
func ParseArticleForm(form url.Values) (ArticleCommand, error) {
	fields := map[string]string{}
	cmd := ArticleCommand{
		Title:         strings.TrimSpace(form.Get("title")),
		Slug:          strings.TrimSpace(form.Get("slug")),
		Content:       form.Get("content"),
		Excerpt:       strings.TrimSpace(form.Get("excerpt")),
		FeaturedImage: strings.TrimSpace(form.Get("featured_image")),
		Author:        strings.TrimSpace(form.Get("author")),
		AuthorImage:   strings.TrimSpace(form.Get("author_image")),
		AuthorRole:    strings.TrimSpace(form.Get("author_role")),
		ReadingTime:   DefaultReadingTime,
		IsFeatured:    form.Get("is_featured") == "on",
	}
	if cmd.Slug == "" {
		cmd.Slug = slug.Make(cmd.Title)
	}

	if raw := strings.TrimSpace(form.Get("reading_time")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields["reading_time"] = "must be a whole number of minutes"
		} else {
			cmd.ReadingTime = n
		}
	}

	if raw := strings.TrimSpace(form.Get("published_at")); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			fields["published_at"] = "must be a date (2006-01-02) or RFC 3339 timestamp"
		} else {
			cmd.PublishedAt = &t
		}
	}

	var err error
	if cmd.CategoryIDs, err = ParseIDList(form.Get("categories")); err != nil {
		fields["categories"] = err.Error()
	}
	if cmd.TagIDs, err = ParseIDList(form.Get("tags")); err != nil {
		fields["tags"] = err.Error()
	}

	return cmd, check(cmd, fields)
}

func ParseCategoryForm(form url.Values) (CategoryCommand, error) {
	cmd := CategoryCommand{
		Name:        strings.TrimSpace(form.Get("name")),
		Slug:        strings.TrimSpace(form.Get("slug")),
		Description: strings.TrimSpace(form.Get("description")),
	}
	if cmd.Slug == "" {
		cmd.Slug = slug.Make(cmd.Name)
	}
	return cmd, check(cmd, map[string]string{})
}

func ParseTagForm(form url.Values) (TagCommand, error) {
	cmd := TagCommand{
		Name: strings.TrimSpace(form.Get("name")),
		Slug: strings.TrimSpace(form.Get("slug")),
	}
	if cmd.Slug == "" {
		cmd.Slug = slug.Make(cmd.Name)
	}
	return cmd, check(cmd, map[string]string{})
}

// ParseIDList reads "3, 1,3" as [3 1]. Empty segments are skipped and the
// first occurrence of each id wins.
func ParseIDList(raw string) ([]int64, error) {
	ids := []int64{}
	seen := map[int64]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a valid id", part)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
