package models

import "time"

// Payment types accepted by the API.
const (
	PaymentTypeCash         = "kateinen"
	PaymentTypeBankTransfer = "tilisiirto"
	PaymentTypeMobilePay    = "mobilepay"
)

// Payment is a membership fee record. Paid and ConfirmerID stay nil until a
// member officer confirms the payment.
type Payment struct {
	ID              int64      `json:"id"`
	PayerID         int64      `json:"payer_id"`
	ConfirmerID     *int64     `json:"confirmer_id"`
	Created         time.Time  `json:"created"`
	ReferenceNumber string     `json:"reference_number"`
	Amount          float64    `json:"amount"`
	ValidUntil      time.Time  `json:"valid_until"`
	Paid            *time.Time `json:"paid"`
	PaymentType     string     `json:"payment_type"`
}

// IsPaid reports whether the payment has been confirmed.
func (p *Payment) IsPaid() bool {
	return p.Paid != nil
}
