package posts

import (
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

const (
	tableName      = "posts"
	authorIDColumn = "author_id"

	titleMinLength   = 5
	titleMaxLength   = 200
	contentMinLength = 10
	contentMaxLength = 5000
)

var postScan = identity.Scan{
	Table:   tableName,
	Columns: []string{"title", "content", authorIDColumn, "created_at", "updated_at"},
}

// Post is a ranked posts row. AuthorID is a positional user id.
type Post struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePostInput carries createPost arguments.
type CreatePostInput struct {
	Title    string
	Content  string
	AuthorID int64
}

// Normalize trims the text fields.
func (in CreatePostInput) Normalize() CreatePostInput {
	return CreatePostInput{
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		AuthorID: in.AuthorID,
	}
}

// Validate checks a normalized input.
func (in CreatePostInput) Validate() error {
	return validation.First(
		validation.Required(in.Title, "title"),
		validation.Required(in.Content, "content"),
		validation.PositiveInteger(in.AuthorID, "authorId"),
		validation.Length(in.Title, "title", titleMinLength, titleMaxLength),
		validation.Length(in.Content, "content", contentMinLength, contentMaxLength),
	)
}

func decodePost(record identity.Record) (Post, error) {
	post := Post{ID: record.ID}
	var err error
	if post.Title, err = record.String("title"); err != nil {
		return Post{}, err
	}
	if post.Content, err = record.String("content"); err != nil {
		return Post{}, err
	}
	if post.AuthorID, err = record.Int(authorIDColumn); err != nil {
		return Post{}, err
	}
	if post.CreatedAt, err = record.Time("created_at"); err != nil {
		return Post{}, err
	}
	if post.UpdatedAt, err = record.Time("updated_at"); err != nil {
		return Post{}, err
	}
	return post, nil
}
