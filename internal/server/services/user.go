// Package services contains server-side business logic. Services translate
// repository errors into common.ServiceError values that handlers render
// directly; anything unexpected becomes an internal error whose cause is kept
// for the logs only.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/auth"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/dmitrijs2005/memberservice/internal/server/passwords"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/repomanager"
)

// Client-facing messages.
const (
	MsgServerError        = "Server error"
	MsgNotFound           = "Not found"
	MsgNoResults          = "No results returned"
	MsgInvalidCredentials = "Invalid username or password"
	MsgUsernameTaken      = "Username already taken"
	MsgEmailTaken         = "Email already taken"
	MsgPasswordTooLong    = "Password is too long"
)

// UserService manages member accounts and password login.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *passwords.Hasher
	tokens      *auth.TokenCodec
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *passwords.Hasher,
	tokens *auth.TokenCodec, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "users"),
	}
}

// FetchUser returns a live user. Deleted users are reported exactly like
// missing ones.
func (s *UserService) FetchUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgNotFound)
		}
		return nil, common.NewInternalError(MsgServerError, err)
	}
	if u.Deleted {
		return nil, common.NewNotFoundError(MsgNotFound)
	}
	return u, nil
}

// Authenticate checks username and password. A legacy credential that
// verifies is rehashed with bcrypt; failing to store the new hash is logged
// and does not fail the login.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	u, err := repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewUnauthenticatedError(MsgInvalidCredentials)
		}
		return nil, common.NewInternalError(MsgServerError, err)
	}
	if u.Deleted {
		return nil, common.NewUnauthenticatedError(MsgInvalidCredentials)
	}

	if !s.hasher.Verify(password, u.PasswordScheme, u.Salt, u.HashedPassword) {
		return nil, common.NewUnauthenticatedError(MsgInvalidCredentials)
	}

	if u.PasswordScheme == models.SchemeLegacy {
		s.migratePassword(ctx, u, password)
	}
	return u, nil
}

func (s *UserService) migratePassword(ctx context.Context, u *models.User, password string) {
	cred, err := s.hasher.CreateCredential(password)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, u.ID, cred.Salt, cred.Hash); err != nil {
		s.log.Warn(ctx, "storing rehashed password failed", "user_id", u.ID, "error", err)
		return
	}

	u.Salt = cred.Salt
	u.HashedPassword = cred.Hash
	u.PasswordScheme = cred.Scheme
	s.log.Info(ctx, "password migrated to bcrypt", "user_id", u.ID)
}

// IssueToken mints a token for u.
func (s *UserService) IssueToken(u *models.User, authenticatedTo ...string) (string, error) {
	token, _, err := s.tokens.Issue(u.ID, authenticatedTo...)
	if err != nil {
		return "", common.NewInternalError(MsgServerError, err)
	}
	return token, nil
}

// Login authenticates and issues a token in one step.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ResolveToken decodes a token and loads the live user it names.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*auth.ServiceToken, *models.User, error) {
	st, err := s.tokens.Decode(token)
	if err != nil {
		return nil, nil, common.NewUnauthenticatedError("Invalid token")
	}
	u, err := s.FetchUser(ctx, st.UserID)
	if err != nil {
		return nil, nil, err
	}
	return st, u, nil
}

func (s *UserService) CheckUsernameAvailability(ctx context.Context, username string) (bool, error) {
	return available(s.repomanager.Users(s.db).FindByUsername(ctx, username))
}

func (s *UserService) CheckEmailAvailability(ctx context.Context, email string) (bool, error) {
	return available(s.repomanager.Users(s.db).FindByEmail(ctx, email))
}

func available(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, common.ErrorNotFound):
		return true, nil
	default:
		return false, common.NewInternalError(MsgServerError, err)
	}
}

// Create registers u with password. Username and email must be unused,
// including by deleted accounts.
func (s *UserService) Create(ctx context.Context, u *models.User, password string) (*models.User, error) {
	cred, err := s.hasher.CreateCredential(password)
	if err != nil {
		if errors.Is(err, passwords.ErrPasswordTooLong) {
			return nil, common.NewValidationError(MsgPasswordTooLong)
		}
		return nil, common.NewInternalError(MsgServerError, err)
	}
	u.Salt = cred.Salt
	u.HashedPassword = cred.Hash
	u.PasswordScheme = cred.Scheme

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		ok, err := available(repo.FindByUsername(ctx, u.Username))
		if err != nil {
			return err
		}
		if !ok {
			return &common.ServiceError{Kind: common.KindValidation, Message: MsgUsernameTaken, Err: common.ErrUsernameTaken}
		}

		ok, err = available(repo.FindByEmail(ctx, u.Email))
		if err != nil {
			return err
		}
		if !ok {
			return &common.ServiceError{Kind: common.KindValidation, Message: MsgEmailTaken, Err: common.ErrEmailTaken}
		}

		created, err = repo.Create(ctx, u)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.Info(ctx, "user created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Update stores the profile in u and, when password is not empty, replaces
// the credential with a bcrypt one.
func (s *UserService) Update(ctx context.Context, u *models.User, password string) (*models.User, error) {
	var cred passwords.Credential
	if password != "" {
		var err error
		cred, err = s.hasher.CreateCredential(password)
		if err != nil {
			if errors.Is(err, passwords.ErrPasswordTooLong) {
				return nil, common.NewValidationError(MsgPasswordTooLong)
			}
			return nil, common.NewInternalError(MsgServerError, err)
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		other, err := repo.FindByEmail(ctx, u.Email)
		switch {
		case err == nil && other.ID != u.ID:
			return &common.ServiceError{Kind: common.KindValidation, Message: MsgEmailTaken, Err: common.ErrEmailTaken}
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return err
		}

		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		if password != "" {
			return repo.UpdatePassword(ctx, u.ID, cred.Salt, cred.Hash)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNoRowsChanged) {
			return nil, common.NewNotFoundError(MsgNotFound)
		}
		return nil, asServiceError(err)
	}

	return s.FetchUser(ctx, u.ID)
}

// Delete soft-deletes a user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Users(s.db).SoftDelete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNoRowsChanged) {
			return common.NewNotFoundError(MsgNotFound)
		}
		return common.NewInternalError(MsgServerError, err)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// Search finds live users by a free text term.
func (s *UserService) Search(ctx context.Context, term string) ([]*models.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, common.NewValidationError("Missing search term")
	}
	list, err := s.repomanager.Users(s.db).Search(ctx, term)
	return nonEmpty(list, err)
}

// List returns the users matching filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).FindAll(ctx, filter)
	return nonEmpty(list, err)
}

// Unpaid returns users whose latest payment is unconfirmed.
func (s *UserService) Unpaid(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).FindAllUnpaid(ctx)
	if err != nil {
		return nil, common.NewInternalError(MsgServerError, err)
	}
	return list, nil
}

func nonEmpty(list []*models.User, err error) ([]*models.User, error) {
	if err != nil {
		return nil, common.NewInternalError(MsgServerError, err)
	}
	if len(list) == 0 {
		return nil, common.NewNotFoundError(MsgNoResults)
	}
	return list, nil
}

// asServiceError passes ServiceErrors through and wraps anything else as
// internal.
func asServiceError(err error) error {
	var se *common.ServiceError
	if errors.As(err, &se) {
		return se
	}
	return common.NewInternalError(MsgServerError, err)
}
