package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noobjs/blog-backend/internal/db/entities"
	"github.com/noobjs/blog-backend/internal/db/interfaces"
)

// authorDocument is the stored shape of an author
type authorDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (doc authorDocument) toEntity() *entities.Author {
	return &entities.Author{
		ID:        entities.StringID(doc.ID.Hex()),
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// AuthorRepository stores authors in the authors collection
type AuthorRepository struct {
	db *Database
}

var _ interfaces.AuthorStore = (*AuthorRepository)(nil)

// Create inserts a new author document
func (r *AuthorRepository) Create(ctx context.Context, author *entities.Author) error {
	coll, err := r.db.collection()
	if err != nil {
		return interfaces.Wrap("create author", err)
	}

	// BSON keeps millisecond precision
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := authorDocument{
		ID:        primitive.NewObjectID(),
		FirstName: author.FirstName,
		LastName:  author.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.Wrap("create author", errors.Join(interfaces.ErrUniqueConstraint, err))
		}
		return interfaces.Wrap("create author", err)
	}

	*author = *doc.toEntity()
	return nil
}

// Get retrieves an author by its hex ObjectID
func (r *AuthorRepository) Get(ctx context.Context, id interfaces.ID) (*entities.Author, error) {
	if id == nil {
		return nil, interfaces.Wrap("get author", interfaces.ErrInvalidID)
	}
	objectID, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, interfaces.Wrap("get author", interfaces.ErrInvalidID)
	}
	coll, err := r.db.collection()
	if err != nil {
		return nil, interfaces.Wrap("get author", err)
	}

	var doc authorDocument
	if err := coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.Wrap("get author", interfaces.ErrNotFound)
		}
		return nil, interfaces.Wrap("get author", err)
	}
	return doc.toEntity(), nil
}

// Count returns the number of stored authors
func (r *AuthorRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.db.collection()
	if err != nil {
		return 0, interfaces.Wrap("count authors", err)
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, interfaces.Wrap("count authors", err)
	}
	return n, nil
}
