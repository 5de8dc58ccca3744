package privacypolicies

import (
	"context"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

type Repository interface {
	FindByName(ctx context.Context, name string) (*models.PrivacyPolicy, error)
}
