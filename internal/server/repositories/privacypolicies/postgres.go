// Package privacypolicies reads named privacy policy texts.
package privacypolicies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.PrivacyPolicy, error) {
	query := `SELECT id, name, text, created, modified FROM privacy_policies WHERE name = $1`

	p := &models.PrivacyPolicy{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&p.ID, &p.Name, &p.Text, &p.Created, &p.Modified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
