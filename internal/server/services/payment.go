package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/dbx"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/dmitrijs2005/memberservice/internal/server/repositories/repomanager"
)

const (
	MsgPaymentNotFound     = "Payment not found"
	MsgPaymentModifyFailed = "Failed to modify payment"
	MsgPaymentAlreadyPaid  = "Payment already confirmed"
	MsgPayerNotFound       = "Payer not found"
	MsgConfirmerNotFound   = "Confirmer not found"
)

type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *PaymentService {
	return &PaymentService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "payments"),
		now:         time.Now,
	}
}

// Now is the clock used to stamp creation and confirmation times.
func (s *PaymentService) Now() time.Time { return s.now().UTC().Truncate(time.Second) }

// Create stores a validated payment and returns it as persisted.
func (s *PaymentService) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	var created *models.Payment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkUsers(ctx, tx, p); err != nil {
			return err
		}

		repo := s.repomanager.Payments(tx)
		saved, err := repo.Create(ctx, p)
		if err != nil {
			return err
		}
		created, err = repo.FindByID(ctx, saved.ID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.Info(ctx, "payment created", "payment_id", created.ID, "payer_id", created.PayerID)
	return created, nil
}

// Update replaces payment id with p. A payment that does not exist fails
// as a validation error, as does a payer or confirmer that does not exist.
func (s *PaymentService) Update(ctx context.Context, id int64, p *models.Payment) (*models.Payment, error) {
	var updated *models.Payment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkUsers(ctx, tx, p); err != nil {
			return err
		}

		repo := s.repomanager.Payments(tx)
		if err := repo.Update(ctx, id, p); err != nil {
			if errors.Is(err, common.ErrorNoRowsChanged) {
				return common.NewValidationError(MsgPaymentModifyFailed)
			}
			return err
		}

		var err error
		updated, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return updated, nil
}

// checkUsers requires a live payer and, when set, an existing confirmer.
func (s *PaymentService) checkUsers(ctx context.Context, tx dbx.DBTX, p *models.Payment) error {
	users := s.repomanager.Users(tx)

	payer, err := users.FindByID(ctx, p.PayerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewValidationError(MsgPayerNotFound)
		}
		return err
	}
	if payer.Deleted {
		return common.NewValidationError(MsgPayerNotFound)
	}

	if p.ConfirmerID != nil {
		if _, err := users.FindByID(ctx, *p.ConfirmerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewValidationError(MsgConfirmerNotFound)
			}
			return err
		}
	}
	return nil
}

func (s *PaymentService) Fetch(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := s.repomanager.Payments(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgPaymentNotFound)
		}
		return nil, common.NewInternalError(MsgServerError, err)
	}
	return p, nil
}

func (s *PaymentService) List(ctx context.Context) ([]*models.Payment, error) {
	list, err := s.repomanager.Payments(s.db).FindAll(ctx)
	if err != nil {
		return nil, common.NewInternalError(MsgServerError, err)
	}
	return list, nil
}

// ListForPayer returns the payments of one user, newest first.
func (s *PaymentService) ListForPayer(ctx context.Context, payerID int64) ([]*models.Payment, error) {
	list, err := s.repomanager.Payments(s.db).FindByPayer(ctx, payerID)
	if err != nil {
		return nil, common.NewInternalError(MsgServerError, err)
	}
	return list, nil
}

// Confirm marks payment id paid now, confirmed by confirmerID.
func (s *PaymentService) Confirm(ctx context.Context, id, confirmerID int64) (*models.Payment, error) {
	var confirmed *models.Payment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Payments(tx)

		p, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewNotFoundError(MsgPaymentNotFound)
			}
			return err
		}
		if p.IsPaid() {
			return common.NewValidationError(MsgPaymentAlreadyPaid)
		}

		if err := repo.Confirm(ctx, id, confirmerID, s.Now()); err != nil {
			if errors.Is(err, common.ErrorNoRowsChanged) {
				return common.NewValidationError(MsgPaymentAlreadyPaid)
			}
			return err
		}
		confirmed, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.log.Info(ctx, "payment confirmed", "payment_id", id, "confirmer_id", confirmerID)
	return confirmed, nil
}
