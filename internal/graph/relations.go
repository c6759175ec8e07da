package graph

import (
	"context"
	"sync"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
)

// Relations answers the nested fields of User, Post and Comment.
type Relations interface {
	User(ctx context.Context, id int64) (users.User, bool)
	PostsByAuthor(ctx context.Context, authorID int64) []posts.Post
	CommentsByPost(ctx context.Context, postID int64) []comments.Comment
	CommentsByAuthor(ctx context.Context, authorID int64) []comments.Comment
}

// directRelations issues one repository call per relation.
type directRelations struct {
	users    UserRepository
	posts    PostRepository
	comments CommentRepository
}

func (d directRelations) User(ctx context.Context, id int64) (users.User, bool) {
	return d.users.Get(ctx, id)
}

func (d directRelations) PostsByAuthor(ctx context.Context, authorID int64) []posts.Post {
	return d.posts.ListByAuthor(ctx, authorID)
}

func (d directRelations) CommentsByPost(ctx context.Context, postID int64) []comments.Comment {
	return d.comments.ListByPost(ctx, postID)
}

func (d directRelations) CommentsByAuthor(ctx context.Context, authorID int64) []comments.Comment {
	return d.comments.ListByAuthor(ctx, authorID)
}

// snapshotRelations scans each table at most once per request and answers
// every relation from the grouped rows, so all nested fields of one request
// see the same id assignment.
type snapshotRelations struct {
	source directRelations

	usersOnce sync.Once
	usersByID map[int64]users.User

	postsOnce     sync.Once
	postsByAuthor map[int64][]posts.Post

	commentsOnce     sync.Once
	commentsByPost   map[int64][]comments.Comment
	commentsByAuthor map[int64][]comments.Comment
}

func newSnapshotRelations(source directRelations) *snapshotRelations {
	return &snapshotRelations{source: source}
}

func (s *snapshotRelations) User(ctx context.Context, id int64) (users.User, bool) {
	s.usersOnce.Do(func() {
		all := s.source.users.List(ctx)
		s.usersByID = make(map[int64]users.User, len(all))
		for _, user := range all {
			s.usersByID[user.ID] = user
		}
	})
	user, ok := s.usersByID[id]
	return user, ok
}

// PostsByAuthor keeps the most-recent-first order of the full listing.
func (s *snapshotRelations) PostsByAuthor(ctx context.Context, authorID int64) []posts.Post {
	s.postsOnce.Do(func() {
		s.postsByAuthor = make(map[int64][]posts.Post)
		for _, post := range s.source.posts.List(ctx) {
			s.postsByAuthor[post.AuthorID] = append(s.postsByAuthor[post.AuthorID], post)
		}
	})
	return nonNil(s.postsByAuthor[authorID])
}

// CommentsByPost is oldest first; the full listing is newest first, so it
// is walked backwards.
func (s *snapshotRelations) CommentsByPost(ctx context.Context, postID int64) []comments.Comment {
	s.loadComments(ctx)
	return nonNil(s.commentsByPost[postID])
}

func (s *snapshotRelations) CommentsByAuthor(ctx context.Context, authorID int64) []comments.Comment {
	s.loadComments(ctx)
	return nonNil(s.commentsByAuthor[authorID])
}

func (s *snapshotRelations) loadComments(ctx context.Context) {
	s.commentsOnce.Do(func() {
		all := s.source.comments.List(ctx)
		s.commentsByPost = make(map[int64][]comments.Comment)
		s.commentsByAuthor = make(map[int64][]comments.Comment)
		for _, comment := range all {
			s.commentsByAuthor[comment.AuthorID] = append(s.commentsByAuthor[comment.AuthorID], comment)
		}
		for i := len(all) - 1; i >= 0; i-- {
			comment := all[i]
			s.commentsByPost[comment.PostID] = append(s.commentsByPost[comment.PostID], comment)
		}
	})
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

type relationsKey struct{}

func withRelations(ctx context.Context, relations Relations) context.Context {
	return context.WithValue(ctx, relationsKey{}, relations)
}

func (s *Service) relations(ctx context.Context) Relations {
	if relations, ok := ctx.Value(relationsKey{}).(Relations); ok {
		return relations
	}
	return s.direct
}
