package comments

import (
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/questgraph/internal/identity"
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

const (
	tableName      = "comments"
	postIDColumn   = "post_id"
	authorIDColumn = "author_id"

	contentMinLength = 3
	contentMaxLength = 1000
)

var commentScan = identity.Scan{
	Table:   tableName,
	Columns: []string{"content", postIDColumn, authorIDColumn, "created_at"},
}

// Comment is a ranked comments row.
type Comment struct {
	ID        int64
	Content   string
	PostID    int64
	AuthorID  int64
	CreatedAt time.Time
}

// CreateCommentInput carries createComment arguments.
type CreateCommentInput struct {
	Content  string
	PostID   int64
	AuthorID int64
}

// Normalize trims the content.
func (in CreateCommentInput) Normalize() CreateCommentInput {
	in.Content = strings.TrimSpace(in.Content)
	return in
}

// Validate checks a normalized input.
func (in CreateCommentInput) Validate() error {
	return validation.First(
		validation.Required(in.Content, "content"),
		validation.PositiveInteger(in.PostID, "postId"),
		validation.PositiveInteger(in.AuthorID, "authorId"),
		validation.Length(in.Content, "content", contentMinLength, contentMaxLength),
	)
}

func decodeComment(record identity.Record) (Comment, error) {
	comment := Comment{ID: record.ID}
	var err error
	if comment.Content, err = record.String("content"); err != nil {
		return Comment{}, err
	}
	if comment.PostID, err = record.Int(postIDColumn); err != nil {
		return Comment{}, err
	}
	if comment.AuthorID, err = record.Int(authorIDColumn); err != nil {
		return Comment{}, err
	}
	if comment.CreatedAt, err = record.Time("created_at"); err != nil {
		return Comment{}, err
	}
	return comment, nil
}
