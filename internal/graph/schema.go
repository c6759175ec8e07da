package graph

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/questgraph/internal/comments"
	"github.com/MarcoPoloResearchLab/questgraph/internal/posts"
	"github.com/MarcoPoloResearchLab/questgraph/internal/storage"
	"github.com/MarcoPoloResearchLab/questgraph/internal/users"
	"github.com/graphql-go/graphql"
)

const helloMessage = "Hello from questgraph with QuestDB!"

type userView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type postView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	AuthorID  int64  `json:"author_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type commentView struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	PostID    int64  `json:"post_id"`
	AuthorID  int64  `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

type statsView struct {
	Users    int64 `json:"users"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}

func viewUser(user users.User) userView {
	return userView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: storage.FormatTimestamp(user.CreatedAt),
	}
}

func viewUsers(list []users.User) []userView {
	views := make([]userView, 0, len(list))
	for _, user := range list {
		views = append(views, viewUser(user))
	}
	return views
}

func viewPosts(list []posts.Post) []postView {
	views := make([]postView, 0, len(list))
	for _, post := range list {
		views = append(views, postView{
			ID:        post.ID,
			Title:     post.Title,
			Content:   post.Content,
			AuthorID:  post.AuthorID,
			CreatedAt: storage.FormatTimestamp(post.CreatedAt),
			UpdatedAt: storage.FormatTimestamp(post.UpdatedAt),
		})
	}
	return views
}

func viewComments(list []comments.Comment) []commentView {
	views := make([]commentView, 0, len(list))
	for _, comment := range list {
		views = append(views, commentView{
			ID:        comment.ID,
			Content:   comment.Content,
			PostID:    comment.PostID,
			AuthorID:  comment.AuthorID,
			CreatedAt: storage.FormatTimestamp(comment.CreatedAt),
		})
	}
	return views
}

func nonNullList(of graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(of)))
}

func (s *Service) buildSchema() (graphql.Schema, error) {
	var userType, postType, commentType *graphql.Object

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"email":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"created_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"posts": &graphql.Field{
					Type:    nonNullList(postType),
					Resolve: s.resolveUserPosts,
				},
				"comments": &graphql.Field{
					Type:    nonNullList(commentType),
					Resolve: s.resolveUserComments,
				},
			}
		}),
	})

	postType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"title":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"content":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"author_id":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"created_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updated_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"author": &graphql.Field{
					Type:    userType,
					Resolve: s.resolvePostAuthor,
				},
				"comments": &graphql.Field{
					Type:    nonNullList(commentType),
					Resolve: s.resolvePostComments,
				},
			}
		}),
	})

	commentType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"content":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"post_id":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"author_id":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"created_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"author": &graphql.Field{
					Type:    userType,
					Resolve: s.resolveCommentAuthor,
				},
			}
		}),
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"users":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"posts":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"comments": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	createUserInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateUserInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"email": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	createPostInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreatePostInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"authorId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
	createCommentInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateCommentInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"postId":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"authorId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	intArgument := func(name string) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{name: &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}}
	}
	inputArgument := func(input *graphql.InputObject) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(input)}}
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type:    graphql.String,
				Resolve: func(graphql.ResolveParams) (interface{}, error) { return helloMessage, nil },
			},
			"version": &graphql.Field{
				Type:    graphql.String,
				Resolve: func(graphql.ResolveParams) (interface{}, error) { return s.version, nil },
			},
			"stats":          &graphql.Field{Type: graphql.NewNonNull(statsType), Resolve: s.resolveStats},
			"users":          &graphql.Field{Type: nonNullList(userType), Resolve: s.resolveUsers},
			"user":           &graphql.Field{Type: userType, Args: intArgument("id"), Resolve: s.resolveUser},
			"posts":          &graphql.Field{Type: nonNullList(postType), Resolve: s.resolvePosts},
			"post":           &graphql.Field{Type: postType, Args: intArgument("id"), Resolve: s.resolvePost},
			"postsByAuthor":  &graphql.Field{Type: nonNullList(postType), Args: intArgument("authorId"), Resolve: s.resolvePostsByAuthor},
			"comments":       &graphql.Field{Type: nonNullList(commentType), Resolve: s.resolveComments},
			"commentsByPost": &graphql.Field{Type: nonNullList(commentType), Args: intArgument("postId"), Resolve: s.resolveCommentsByPost},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"echo": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"message": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					message, _ := p.Args["message"].(string)
					return fmt.Sprintf("Echo: %s", message), nil
				},
			},
			"createUser":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Args: inputArgument(createUserInput), Resolve: s.resolveCreateUser},
			"createPost":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Args: inputArgument(createPostInput), Resolve: s.resolveCreatePost},
			"createComment": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Args: inputArgument(createCommentInput), Resolve: s.resolveCreateComment},
			"seedDatabase":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: s.resolveSeedDatabase},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}
