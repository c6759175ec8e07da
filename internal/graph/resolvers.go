package graph

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"github.com/graphql-go/graphql"
)

const (
	opCreateUser    = "graph.create_user"
	opCreatePost    = "graph.create_post"
	opCreateComment = "graph.create_comment"
	opSeedDatabase  = "graph.seed_database"
)

func (s *Service) resolveStats(p graphql.ResolveParams) (interface{}, error) {
	stats := s.stats(p.Context)
	return statsView{Users: stats.Users, Posts: stats.Posts, Comments: stats.Comments}, nil
}

func (s *Service) resolveUsers(p graphql.ResolveParams) (interface{}, error) {
	return viewUsers(s.users.List(p.Context)), nil
}

func (s *Service) resolveUser(p graphql.ResolveParams) (interface{}, error) {
	user, found := s.users.Get(p.Context, intArg(p.Args, "id"))
	if !found {
		return nil, nil
	}
	return viewUser(user), nil
}

func (s *Service) resolvePosts(p graphql.ResolveParams) (interface{}, error) {
	return viewPosts(s.posts.List(p.Context)), nil
}

func (s *Service) resolvePost(p graphql.ResolveParams) (interface{}, error) {
	post, found := s.posts.Get(p.Context, intArg(p.Args, "id"))
	if !found {
		return nil, nil
	}
	return viewPosts([]posts.Post{post})[0], nil
}

func (s *Service) resolvePostsByAuthor(p graphql.ResolveParams) (interface{}, error) {
	return viewPosts(s.posts.ListByAuthor(p.Context, intArg(p.Args, "authorId"))), nil
}

func (s *Service) resolveComments(p graphql.ResolveParams) (interface{}, error) {
	return viewComments(s.comments.List(p.Context)), nil
}

func (s *Service) resolveCommentsByPost(p graphql.ResolveParams) (interface{}, error) {
	return viewComments(s.comments.ListByPost(p.Context, intArg(p.Args, "postId"))), nil
}

func (s *Service) resolveUserPosts(p graphql.ResolveParams) (interface{}, error) {
	parent, ok := p.Source.(userView)
	if !ok {
		return []postView{}, nil
	}
	return viewPosts(s.relations(p.Context).PostsByAuthor(p.Context, parent.ID)), nil
}

func (s *Service) resolveUserComments(p graphql.ResolveParams) (interface{}, error) {
	parent, ok := p.Source.(userView)
	if !ok {
		return []commentView{}, nil
	}
	return viewComments(s.relations(p.Context).CommentsByAuthor(p.Context, parent.ID)), nil
}

// resolvePostAuthor returns null when author_id no longer ranks to a user.
func (s *Service) resolvePostAuthor(p graphql.ResolveParams) (interface{}, error) {
	parent, ok := p.Source.(postView)
	if !ok {
		return nil, nil
	}
	author, found := s.relations(p.Context).User(p.Context, parent.AuthorID)
	if !found {
		return nil, nil
	}
	return viewUser(author), nil
}

func (s *Service) resolvePostComments(p graphql.ResolveParams) (interface{}, error) {
	parent, ok := p.Source.(postView)
	if !ok {
		return []commentView{}, nil
	}
	return viewComments(s.relations(p.Context).CommentsByPost(p.Context, parent.ID)), nil
}

func (s *Service) resolveCommentAuthor(p graphql.ResolveParams) (interface{}, error) {
	parent, ok := p.Source.(commentView)
	if !ok {
		return nil, nil
	}
	author, found := s.relations(p.Context).User(p.Context, parent.AuthorID)
	if !found {
		return nil, nil
	}
	return viewUser(author), nil
}

func (s *Service) resolveCreateUser(p graphql.ResolveParams) (interface{}, error) {
	input := inputArg(p.Args)
	created := users.CreateUserInput{
		Name:  stringField(input, "name"),
		Email: stringField(input, "email"),
	}
	if err := s.users.Insert(p.Context, created); err != nil {
		return nil, s.mutationError(opCreateUser, "Failed to create user", err)
	}
	return fmt.Sprintf("User %s created successfully", created.Normalize().Name), nil
}

func (s *Service) resolveCreatePost(p graphql.ResolveParams) (interface{}, error) {
	input := inputArg(p.Args)
	created := posts.CreatePostInput{
		Title:    stringField(input, "title"),
		Content:  stringField(input, "content"),
		AuthorID: intArg(input, "authorId"),
	}
	if err := s.posts.Insert(p.Context, created); err != nil {
		return nil, s.mutationError(opCreatePost, "Failed to create post", err)
	}
	return fmt.Sprintf("Post %q created successfully", created.Normalize().Title), nil
}

func (s *Service) resolveCreateComment(p graphql.ResolveParams) (interface{}, error) {
	input := inputArg(p.Args)
	created := comments.CreateCommentInput{
		Content:  stringField(input, "content"),
		PostID:   intArg(input, "postId"),
		AuthorID: intArg(input, "authorId"),
	}
	if err := s.comments.Insert(p.Context, created); err != nil {
		return nil, s.mutationError(opCreateComment, "Failed to create comment", err)
	}
	return "Comment created successfully", nil
}

func (s *Service) resolveSeedDatabase(p graphql.ResolveParams) (interface{}, error) {
	if err := s.seeder.Seed(p.Context); err != nil {
		return nil, s.mutationError(opSeedDatabase, "Failed to seed database", err)
	}
	return "Database seeded successfully", nil
}

func inputArg(args map[string]interface{}) map[string]interface{} {
	input, _ := args["input"].(map[string]interface{})
	return input
}

func stringField(values map[string]interface{}, name string) string {
	value, _ := values[name].(string)
	return value
}

// intArg reads a GraphQL Int, which graphql-go coerces to int.
func intArg(values map[string]interface{}, name string) int64 {
	switch value := values[name].(type) {
	case int:
		return int64(value)
	case int64:
		return value
	case float64:
		return int64(value)
	default:
		return 0
	}
}
