package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/google/uuid"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

// PostgresDB is a postgres adapter for persistence.
type PostgresDB struct {
	db      *pg.DB
	nowFunc func() time.Time
}

// PostgresDBArgs are the mandatory arguments for the creation of a PostgresDB.
type PostgresDBArgs struct {
	// DB is a postgres database handle
	DB *pg.DB
}

// PostgresDBOptArgs are the optional arguments for building a PostgresDB.
type PostgresDBOptArgs = func(*PostgresDB)

// WithNowFunc can be used to override the nowFunc. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) PostgresDBOptArgs {
	return func(p *PostgresDB) {
		p.nowFunc = nowFunc
	}
}

// NewPostgresDB creates a new PostgresDB.
func NewPostgresDB(args PostgresDBArgs, optArgs ...PostgresDBOptArgs) (*PostgresDB, error) {
	p := &PostgresDB{db: args.DB, nowFunc: func() time.Time { return time.Now().UTC() }}
	for _, opt := range optArgs {
		opt(p)
	}
	return p, nil
}

// CreateUser will save the user in the database. Uniqueness violations on
// external_id or email surface as model.ErrConflict.
func (p *PostgresDB) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("nil user passed to create method")
	}

	dbUser := p.toDBModel(user)
	if _, err := p.db.ModelContext(ctx, dbUser).Insert(); err != nil {
		var pgErr pg.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return model.ErrConflict
		}
		return err
	}

	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// GetUserByExternalID returns the user matching the provider subject id. It
// returns model.ErrNotFound if no such user exists.
func (p *PostgresDB) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	dbUser := new(userDB)
	err := p.db.ModelContext(ctx, dbUser).Where("external_id = ?", externalID).Select()
	if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	user := translateDBToModel(*dbUser)
	return &user, nil
}

// UpdateUser applies the non-zero patch fields to the stored user. It returns
// model.ErrNotFound if the input user does not exist.
func (p *PostgresDB) UpdateUser(ctx context.Context, id uuid.UUID, patch ports.UserPatch) (*model.User, error) {
	conn := p.db.Conn()
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing := new(userDB)
	err = tx.ModelContext(ctx, existing).Where("id = ?", id).Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	} else if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	}

	p.applyPatch(existing, patch)
	if _, err := tx.ModelContext(ctx, existing).WherePK().Update(); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	user := translateDBToModel(*existing)
	return &user, nil
}

// DeleteUser removes the user matching the provider subject id and returns
// the removed record. It returns model.ErrNotFound if no such user exists.
func (p *PostgresDB) DeleteUser(ctx context.Context, externalID string) (*model.User, error) {
	conn := p.db.Conn()
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing := new(userDB)
	err = tx.ModelContext(ctx, existing).Where("external_id = ?", externalID).Select()
	if err != nil && err != pg.ErrNoRows {
		return nil, err
	} else if err == pg.ErrNoRows {
		return nil, model.ErrNotFound
	}

	if _, err := tx.ModelContext(ctx, existing).WherePK().Delete(); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	user := translateDBToModel(*existing)
	return &user, nil
}

func (p *PostgresDB) toDBModel(user *model.User) *userDB {
	dbUser := new(userDB)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	dbUser.ID = user.ID
	dbUser.ExternalID = user.ExternalID
	dbUser.Email = user.Email
	dbUser.Name = user.Name
	dbUser.ImageURL = user.ImageURL
	dbUser.Role = user.Role
	dbUser.Status = user.Status
	if !user.CreatedAt.IsZero() {
		dbUser.CreatedAt = user.CreatedAt
	} else {
		dbUser.CreatedAt = p.nowFunc()
	}
	dbUser.UpdatedAt = p.nowFunc()
	return dbUser
}

func (p *PostgresDB) applyPatch(existing *userDB, patch ports.UserPatch) {
	if patch.Email != "" {
		existing.Email = patch.Email
	}
	if patch.Name != "" {
		existing.Name = patch.Name
	}
	if patch.ImageURL != "" {
		existing.ImageURL = patch.ImageURL
	}
	existing.UpdatedAt = p.nowFunc()
}

func translateDBToModel(dbUser userDB) model.User {
	return model.User{
		ID:         dbUser.ID,
		ExternalID: dbUser.ExternalID,
		Email:      dbUser.Email,
		Name:       dbUser.Name,
		ImageURL:   dbUser.ImageURL,
		Role:       dbUser.Role,
		Status:     dbUser.Status,
		CreatedAt:  dbUser.CreatedAt,
		UpdatedAt:  dbUser.UpdatedAt,
	}
}

type userDB struct {
	tableName struct{} `pg:"studybuddy.users"`

	// ID unique identifier of the user.
	ID uuid.UUID `pg:"id,type:uuid,default:uuid_generate_v4()"`

	// ExternalID is the identity provider subject identifier. Unique.
	ExternalID string `pg:"external_id"`

	// Email is the user primary email. Unique.
	Email string `pg:"email"`

	// Name is the derived display name.
	Name string `pg:"name"`

	// ImageURL is the user profile image URL.
	ImageURL string `pg:"image_url"`

	// Role is the application role.
	Role string `pg:"role"`

	// Status is the account status.
	Status string `pg:"status"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `pg:"created_at"`

	// UpdatedAt is the time at which the user was last updated.
	UpdatedAt time.Time `pg:"updated_at"`
}
