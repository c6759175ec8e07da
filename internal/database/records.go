package database

// UserRecord is the embedded layout of the users table.
type UserRecord struct {
	Name    string `gorm:"column:name;not null"`
	Email   string `gorm:"column:email;not null"`
	Created string `gorm:"column:created_at;size:27;not null;index"`
}

// TableName binds the record to the users table.
func (UserRecord) TableName() string {
	return "users"
}

// PostRecord is the embedded layout of the posts table.
type PostRecord struct {
	Title    string `gorm:"column:title;not null"`
	Content  string `gorm:"column:content;not null"`
	AuthorID int32  `gorm:"column:author_id;not null"`
	Created  string `gorm:"column:created_at;size:27;not null;index"`
	Updated  string `gorm:"column:updated_at;size:27;not null"`
}

// TableName binds the record to the posts table.
func (PostRecord) TableName() string {
	return "posts"
}

// CommentRecord is the embedded layout of the comments table.
type CommentRecord struct {
	Content  string `gorm:"column:content;not null"`
	PostID   int32  `gorm:"column:post_id;not null"`
	AuthorID int32  `gorm:"column:author_id;not null"`
	Created  string `gorm:"column:created_at;size:27;not null;index"`
}

// TableName binds the record to the comments table.
func (CommentRecord) TableName() string {
	return "comments"
}
