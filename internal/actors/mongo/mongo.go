package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

// MongoDB is a mongo adapter for persistence.
type MongoDB struct {
	userCollection *mongo.Collection
	nowFunc        func() time.Time
}

// MongoDBArgs are the mandatory arguments for the creation of a MongoDB.
type MongoDBArgs struct {
	// UserCollection is a mongo collection
	UserCollection *mongo.Collection
}

// MongoDBOptArgs are the optional arguments for building a MongoDB.
type MongoDBOptArgs = func(*MongoDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) MongoDBOptArgs {
	return func(m *MongoDB) {
		m.nowFunc = nowFunc
	}
}

// NewMongoDB creates a new MongoDB.
func NewMongoDB(args MongoDBArgs, optArgs ...MongoDBOptArgs) (*MongoDB, error) {
	m := &MongoDB{userCollection: args.UserCollection, nowFunc: func() time.Time { return time.Now().UTC() }}
	for _, opt := range optArgs {
		opt(m)
	}
	return m, nil
}

// EnsureIndexes creates the uniqueness indexes conflict detection relies on.
// Call it once at startup.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	_, err := m.userCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// CreateUser will save the user in the collection. Duplicate keys on
// external_id or email surface as model.ErrConflict.
func (m *MongoDB) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to create method")
	}

	dbUser := m.toDBModel(user)
	if _, err := m.userCollection.InsertOne(ctx, dbUser); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrConflict
		}
		return err
	}

	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// GetUserByExternalID returns the user matching the provider subject id. It
// returns model.ErrNotFound if no such user exists.
func (m *MongoDB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	dbUser := new(userDB)
	err := m.userCollection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(dbUser)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return translateDBToModel(dbUser)
}

// UpdateUser applies the non-zero patch fields to the stored user. It returns
// model.ErrNotFound if the input user does not exist.
func (m *MongoDB) UpdateUser(ctx context.Context, id uuid.UUID, patch ports.UserPatch) (*model.User, error) {
	set := bson.M{"updated_at": m.nowFunc()}
	if patch.Email != "" {
		set["email"] = patch.Email
	}
	if patch.Name != "" {
		set["name"] = patch.Name
	}
	if patch.ImageURL != "" {
		set["image_url"] = patch.ImageURL
	}

	after := options.After
	dbUser := new(userDB)
	err := m.userCollection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(dbUser)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return translateDBToModel(dbUser)
}

// DeleteUser removes the user matching the provider subject id and returns
// the removed record. It returns model.ErrNotFound if no such user exists.
func (m *MongoDB) DeleteUser(ctx context.Context, externalID string) (*model.User, error) {
	dbUser := new(userDB)
	err := m.userCollection.FindOneAndDelete(ctx, bson.M{"external_id": externalID}).Decode(dbUser)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return translateDBToModel(dbUser)
}

func (m *MongoDB) toDBModel(user *model.User) *userDB {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = m.nowFunc()
	}
	return &userDB{
		ID:         user.ID.String(),
		ExternalID: user.ExternalID,
		Email:      user.Email,
		Name:       user.Name,
		ImageURL:   user.ImageURL,
		Role:       user.Role,
		Status:     user.Status,
		CreatedAt:  createdAt,
		UpdatedAt:  m.nowFunc(),
	}
}

func translateDBToModel(dbUser *userDB) (*model.User, error) {
	id, err := uuid.Parse(dbUser.ID)
	if err != nil {
		return nil, fmt.Errorf("error parsing stored user id: %w", err)
	}
	return &model.User{
		ID:         id,
		ExternalID: dbUser.ExternalID,
		Email:      dbUser.Email,
		Name:       dbUser.Name,
		ImageURL:   dbUser.ImageURL,
		Role:       dbUser.Role,
		Status:     dbUser.Status,
		CreatedAt:  dbUser.CreatedAt,
		UpdatedAt:  dbUser.UpdatedAt,
	}, nil
}

type userDB struct {
	// ID unique identifier of the user, stored as its canonical string form.
	ID string `bson:"_id"`

	// ExternalID is the identity provider subject identifier. Unique.
	ExternalID string `bson:"external_id"`

	// Email is the user primary email. Unique.
	Email string `bson:"email"`

	// Name is the derived display name.
	Name string `bson:"name"`

	// ImageURL is the user profile image URL.
	ImageURL string `bson:"image_url,omitempty"`

	// Role is the application role.
	Role string `bson:"role"`

	// Status is the account status.
	Status string `bson:"status"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time at which the user was last updated.
	UpdatedAt time.Time `bson:"updated_at"`
}
