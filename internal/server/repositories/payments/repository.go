package payments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	FindAll(ctx context.Context) ([]*models.Payment, error)
	FindByPayer(ctx context.Context, payerID int64) ([]*models.Payment, error)
	Update(ctx context.Context, id int64, p *models.Payment) error
	Confirm(ctx context.Context, id, confirmerID int64, at time.Time) error
}
