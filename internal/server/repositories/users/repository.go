package users

import (
	"context"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

// Repository is the credential store. Lookups return deleted users too;
// callers decide whether a soft-deleted row counts as present.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Search(ctx context.Context, term string) ([]*models.User, error)
	FindAllUnpaid(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, salt, hash string) error
	SoftDelete(ctx context.Context, id int64) error
}
