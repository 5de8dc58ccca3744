// Package users stores member accounts and their credentials in PostgreSQL.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

const userColumns = `id, username, name, screen_name, email, residence, phone,
	hyy_member, membership, role, salt, hashed_password, created, modified, deleted`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var role string
	err := s.Scan(&u.ID, &u.Username, &u.Name, &u.Screenname, &u.Email, &u.Residence, &u.Phone,
		&u.HYYMember, &u.Membership, &role, &u.Salt, &u.HashedPassword, &u.CreatedAt, &u.ModifiedAt, &u.Deleted)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.PasswordScheme = models.SchemeFromSalt(u.Salt)
	return u, nil
}

// storedSalt is the salt column value for u; bcrypt credentials always
// persist the sentinel.
func storedSalt(u *models.User) string {
	if u.PasswordScheme == models.SchemeBcrypt {
		return models.LegacySaltSentinel
	}
	return u.Salt
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, `username = $1`, username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// FindAll lists users matching filter, ordered by id.
func (r *PostgresRepository) FindAll(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	conds := []string{"deleted = $1"}
	args := []any{filter.Revoked}

	if filter.MembersOnly {
		args = append(args, models.MembershipNonMember)
		conds = append(conds, fmt.Sprintf("membership <> $%d", len(args)))
	}
	if filter.NonMembersOnly {
		args = append(args, models.MembershipNonMember)
		conds = append(conds, fmt.Sprintf("membership = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`
	return r.list(ctx, query, args...)
}

// Search matches term as a case-insensitive substring of username, name,
// screen name or email among live users.
func (r *PostgresRepository) Search(ctx context.Context, term string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE deleted = FALSE
		  AND (username ILIKE $1 OR name ILIKE $1 OR screen_name ILIKE $1 OR email ILIKE $1)
		ORDER BY id`

	return r.list(ctx, query, "%"+escapeLike(term)+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// FindAllUnpaid lists live users whose most recent payment is not confirmed.
func (r *PostgresRepository) FindAllUnpaid(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u
		WHERE u.deleted = FALSE
		  AND EXISTS (
			SELECT 1 FROM payments p
			WHERE p.payer_id = u.id
			  AND p.paid IS NULL
			  AND p.id = (SELECT max(id) FROM payments WHERE payer_id = u.id)
		  )
		ORDER BY u.id`

	return r.list(ctx, query)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (username, name, screen_name, email, residence, phone,
			hyy_member, membership, role, salt, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created, modified`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Name, user.Screenname, user.Email, user.Residence, user.Phone,
		user.HYYMember, user.Membership, string(user.Role), storedSalt(user), user.HashedPassword,
	).Scan(&user.ID, &user.CreatedAt, &user.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Salt = storedSalt(user)
	return user, nil
}

// Update writes the profile fields of user. Credentials are changed with
// UpdatePassword only.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $1, screen_name = $2, email = $3, residence = $4, phone = $5,
			hyy_member = $6, membership = $7, role = $8, modified = now()
		WHERE id = $9`

	res, err := r.db.ExecContext(ctx, query,
		user.Name, user.Screenname, user.Email, user.Residence, user.Phone,
		user.HYYMember, user.Membership, string(user.Role), user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = dbx.RowsChanged(res)
	return err
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, salt, hash string) error {
	query := `UPDATE users SET salt = $1, hashed_password = $2, modified = now() WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, salt, hash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = dbx.RowsChanged(res)
	return err
}

// SoftDelete marks the user deleted. Deleting an already deleted user
// reports common.ErrorNoRowsChanged.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE users SET deleted = TRUE, modified = now() WHERE id = $1 AND deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	_, err = dbx.RowsChanged(res)
	return err
}
