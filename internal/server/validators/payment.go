// Package validators checks client input before it reaches the services and
// turns it into model values. Failures are common.ServiceError values of the
// validation or forbidden kind.
package validators

import (
	"time"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

const (
	MsgInvalidPaymentData   = "Invalid POST data"
	MsgPaymentUpdateMissing = "Failed to modify payment: missing request parameters"
)

// PaymentInput is a payment as sent by a client. Nil fields were absent from
// the request body.
type PaymentInput struct {
	ID              *int64     `json:"id"`
	PayerID         *int64     `json:"payer_id"`
	ConfirmerID     *int64     `json:"confirmer_id"`
	Created         *time.Time `json:"created"`
	ReferenceNumber *string    `json:"reference_number"`
	Amount          *float64   `json:"amount"`
	ValidUntil      *time.Time `json:"valid_until"`
	Paid            *time.Time `json:"paid"`
	PaymentType     *string    `json:"payment_type"`
}

// ValidateCreatePayment requires payer, a positive amount, an expiry and a
// payment type. The client supplied id is dropped, created is set to now, and
// paid and confirmer_id stay empty until the payment is confirmed.
func ValidateCreatePayment(in *PaymentInput, now time.Time) (*models.Payment, error) {
	if in == nil ||
		in.PayerID == nil || *in.PayerID <= 0 ||
		in.Amount == nil || *in.Amount <= 0 ||
		in.ValidUntil == nil || in.ValidUntil.IsZero() ||
		in.PaymentType == nil || *in.PaymentType == "" {
		return nil, common.NewValidationError(MsgInvalidPaymentData)
	}

	p := &models.Payment{
		PayerID:     *in.PayerID,
		Created:     now,
		Amount:      *in.Amount,
		ValidUntil:  *in.ValidUntil,
		PaymentType: *in.PaymentType,
	}
	if in.ReferenceNumber != nil {
		p.ReferenceNumber = *in.ReferenceNumber
	}
	return p, nil
}

// ValidateUpdatePayment requires the whole payment with a positive amount. An
// update replaces every column, so a partial body is rejected rather than
// merged.
func ValidateUpdatePayment(in *PaymentInput) (*models.Payment, error) {
	if in == nil ||
		in.ID == nil || *in.ID == 0 ||
		in.PayerID == nil || *in.PayerID == 0 ||
		in.ConfirmerID == nil || *in.ConfirmerID == 0 ||
		in.Created == nil || in.Created.IsZero() ||
		in.ReferenceNumber == nil || *in.ReferenceNumber == "" ||
		in.Amount == nil || *in.Amount <= 0 ||
		in.ValidUntil == nil || in.ValidUntil.IsZero() ||
		in.Paid == nil || in.Paid.IsZero() ||
		in.PaymentType == nil || *in.PaymentType == "" {
		return nil, common.NewValidationError(MsgPaymentUpdateMissing)
	}

	return &models.Payment{
		ID:              *in.ID,
		PayerID:         *in.PayerID,
		ConfirmerID:     in.ConfirmerID,
		Created:         *in.Created,
		ReferenceNumber: *in.ReferenceNumber,
		Amount:          *in.Amount,
		ValidUntil:      *in.ValidUntil,
		Paid:            in.Paid,
		PaymentType:     *in.PaymentType,
	}, nil
}
