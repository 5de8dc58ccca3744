// Package payments stores membership fee payments in PostgreSQL.
package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

const paymentColumns = `id, payer_id, confirmer_id, created, reference_number, amount, valid_until, paid, payment_type`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*models.Payment, error) {
	p := &models.Payment{}
	err := s.Scan(&p.ID, &p.PayerID, &p.ConfirmerID, &p.Created, &p.ReferenceNumber,
		&p.Amount, &p.ValidUntil, &p.Paid, &p.PaymentType)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts p. Any ID set on p is ignored.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	query := `INSERT INTO payments (payer_id, confirmer_id, created, reference_number, amount, valid_until, paid, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		p.PayerID, p.ConfirmerID, p.Created, p.ReferenceNumber, p.Amount, p.ValidUntil, p.Paid, p.PaymentType,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]*models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY id`)
}

func (r *PostgresRepository) FindByPayer(ctx context.Context, payerID int64) ([]*models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payer_id = $1 ORDER BY created DESC, id DESC`, payerID)
}

// Update replaces every column of payment id with the values in p.
func (r *PostgresRepository) Update(ctx context.Context, id int64, p *models.Payment) error {
	query := `UPDATE payments SET payer_id = $1, confirmer_id = $2, created = $3, reference_number = $4,
			amount = $5, valid_until = $6, paid = $7, payment_type = $8
		WHERE id = $9`

	res, err := r.db.ExecContext(ctx, query,
		p.PayerID, p.ConfirmerID, p.Created, p.ReferenceNumber, p.Amount, p.ValidUntil, p.Paid, p.PaymentType, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = dbx.RowsChanged(res)
	return err
}

// Confirm marks an unpaid payment paid. It reports common.ErrorNoRowsChanged
// when the payment is missing or already paid.
func (r *PostgresRepository) Confirm(ctx context.Context, id, confirmerID int64, at time.Time) error {
	query := `UPDATE payments SET paid = $1, confirmer_id = $2 WHERE id = $3 AND paid IS NULL`

	res, err := r.db.ExecContext(ctx, query, at, confirmerID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = dbx.RowsChanged(res)
	return err
}
