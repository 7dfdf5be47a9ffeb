// Package blog implements the author and post operations on top of the
// storage port.
package blog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
	"github.com/noobjs/blog-backend/internal/events"
)

// MetricsRecorder counts storage calls
type MetricsRecorder interface {
	RecordStoreOperation(ctx context.Context, backend, op string, err error)
}

// AuthorSummary is the listing shape of an author
type AuthorSummary struct {
	ID        entities.ID `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
}

// Service validates inputs, performs one storage call per operation and
// publishes a domain event for every successful create.
type Service struct {
	db        interfaces.Database
	publisher events.Publisher
	metrics   MetricsRecorder
	logger    *zap.SugaredLogger
}

// NewService wires the service. publisher and metrics may be nil.
func NewService(db interfaces.Database, publisher events.Publisher, metrics MetricsRecorder, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		db:        db,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Backend names the storage backend in use
func (s *Service) Backend() string {
	return s.db.Name()
}

// Relational reports whether list and post operations are available
func (s *Service) Relational() bool {
	_, ok := interfaces.AsRelational(s.db)
	return ok
}

// Healthy reports whether storage answers
func (s *Service) Healthy(ctx context.Context) bool {
	return s.db.IsHealthy(ctx)
}

func (s *Service) relational() (interfaces.Relational, error) {
	r, ok := interfaces.AsRelational(s.db)
	if !ok {
		return nil, fmt.Errorf("%s backend: %w", s.db.Name(), interfaces.ErrUnsupported)
	}
	return r, nil
}

func (s *Service) record(ctx context.Context, op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(ctx, s.db.Name(), op, err)
	}
}

// CreateAuthor stores a new author. Identical inputs create distinct authors.
func (s *Service) CreateAuthor(ctx context.Context, in AuthorInput) (*entities.Author, error) {
	if err := Validate(&in); err != nil {
		return nil, err
	}

	author := &entities.Author{FirstName: in.FirstName, LastName: in.LastName}
	err := s.db.Authors().Create(ctx, author)
	s.record(ctx, "create_author", err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicAuthors, events.TypeAuthorCreated, author)
	return author, nil
}

// ListAuthors returns every author ordered by id
func (s *Service) ListAuthors(ctx context.Context) ([]AuthorSummary, error) {
	r, err := s.relational()
	if err != nil {
		return nil, err
	}

	authors, err := r.Catalog().List(ctx, interfaces.ByIDAsc())
	s.record(ctx, "list_authors", err)
	if err != nil {
		return nil, err
	}

	summaries := make([]AuthorSummary, 0, len(authors))
	for _, a := range authors {
		summaries = append(summaries, AuthorSummary{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName})
	}
	return summaries, nil
}

// CreatePost stores a new post. The author reference is checked by storage.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*entities.Post, error) {
	if err := Validate(&in); err != nil {
		return nil, err
	}
	r, err := s.relational()
	if err != nil {
		return nil, err
	}

	post := &entities.Post{Title: in.Title, Content: in.Content}
	if in.AuthorID != nil {
		post.AuthorID = entities.IntID(*in.AuthorID)
	}

	err = r.Posts().Create(ctx, post)
	s.record(ctx, "create_post", err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicPosts, events.TypePostCreated, post)
	return post, nil
}

// CreatePostForAuthor stores a new post owned by authorID, ignoring any
// AuthorId in the input.
func (s *Service) CreatePostForAuthor(ctx context.Context, authorID entities.IntID, in PostInput) (*entities.Post, error) {
	id := int64(authorID)
	in.AuthorID = &id
	return s.CreatePost(ctx, in)
}

// PostsByAuthor returns the posts of an existing author ordered by id
func (s *Service) PostsByAuthor(ctx context.Context, authorID entities.IntID) ([]entities.Post, error) {
	r, err := s.relational()
	if err != nil {
		return nil, err
	}

	_, err = r.Catalog().Get(ctx, authorID)
	s.record(ctx, "get_author", err)
	if err != nil {
		return nil, err
	}

	posts, err := r.Posts().ListByAuthor(ctx, authorID)
	s.record(ctx, "list_posts_by_author", err)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// AuthorOfPost resolves the author of a post. A post without an author
// yields interfaces.ErrNotFound.
func (s *Service) AuthorOfPost(ctx context.Context, postID entities.IntID) (*entities.Author, error) {
	r, err := s.relational()
	if err != nil {
		return nil, err
	}

	post, err := r.Posts().Get(ctx, postID)
	s.record(ctx, "get_post", err)
	if err != nil {
		return nil, err
	}
	if post.AuthorID == nil {
		return nil, fmt.Errorf("post %s has no author: %w", post.ID, interfaces.ErrNotFound)
	}

	author, err := r.Catalog().Get(ctx, post.AuthorID)
	s.record(ctx, "get_author", err)
	if err != nil {
		return nil, err
	}
	return author, nil
}

// publish never fails the calling operation
func (s *Service) publish(ctx context.Context, topic, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(topic, eventType, data)
	if err == nil {
		err = s.publisher.Publish(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		s.logger.Warnw("Failed to publish event", "type", eventType, "error", err)
	}
}

// IsValidation reports whether err is an input validation failure
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
