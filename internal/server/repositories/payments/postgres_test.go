package payments

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentCols = []string{"id", "payer_id", "confirmer_id", "created", "reference_number",
	"amount", "valid_until", "paid", "payment_type"}

var (
	created    = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	validUntil = time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+payments\s*\(payer_id,.+RETURNING\s+id$`).
		WithArgs(int64(3), sqlmock.AnyArg(), created, "RF123", 20.5, validUntil, sqlmock.AnyArg(), "tilisiirto").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	p := &models.Payment{
		ID: 999, PayerID: 3, Created: created, ReferenceNumber: "RF123",
		Amount: 20.5, ValidUntil: validUntil, PaymentType: "tilisiirto",
	}
	got, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+payments`).WillReturnError(errors.New("fk violation"))

	_, err := repo.Create(context.Background(), &models.Payment{PayerID: 3})
	if err == nil || !regexp.MustCompile(`db error: .*fk violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	paid := created.Add(time.Hour)
	mock.ExpectQuery(`^SELECT\s+id,.+FROM\s+payments\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(11), int64(3), int64(5), created, "RF123", 20.5, validUntil, paid, "kateinen"))

	got, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, got.ConfirmerID)
	assert.Equal(t, int64(5), *got.ConfirmerID)
	require.NotNil(t, got.Paid)
	assert.True(t, got.IsPaid())
	assert.Equal(t, 20.5, got.Amount)
}

func TestFindByID_Unpaid(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+payments\s+WHERE\s+id`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(11), int64(3), nil, created, "", 20.0, validUntil, nil, "mobilepay"))

	got, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Nil(t, got.ConfirmerID)
	assert.False(t, got.IsPaid())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+payments\s+WHERE\s+id`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+payments\s+ORDER\s+BY\s+id$`).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(1), int64(3), nil, created, "", 20.0, validUntil, nil, "mobilepay").
			AddRow(int64(2), int64(4), nil, created, "", 25.0, validUntil, nil, "kateinen"))

	got, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[1].PayerID)
}

func TestFindByPayer_RowsError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+payer_id\s*=\s*\$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(1), int64(3), nil, created, "", 20.0, validUntil, nil, "mobilepay").
			RowError(0, errors.New("broken row")))

	_, err := repo.FindByPayer(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken row")
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+payments\s+SET\s+payer_id\s*=\s*\$1.+WHERE\s+id\s*=\s*\$9$`
	p := &models.Payment{PayerID: 3, Created: created, Amount: 20, ValidUntil: validUntil, PaymentType: "kateinen"}

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), 11, p))

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), 12, p), common.ErrorNoRowsChanged)
}

func TestConfirm(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := created.Add(48 * time.Hour)
	q := `^UPDATE\s+payments\s+SET\s+paid\s*=\s*\$1,\s*confirmer_id\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s+AND\s+paid\s+IS\s+NULL$`

	mock.ExpectExec(q).WithArgs(at, int64(5), int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Confirm(context.Background(), 11, 5, at))

	mock.ExpectExec(q).WithArgs(at, int64(5), int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Confirm(context.Background(), 11, 5, at), common.ErrorNoRowsChanged)
}
