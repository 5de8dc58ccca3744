package rest

import (
	"net/http"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/dmitrijs2005/memberservice/internal/server/validators"
)

func (s *HTTPServer) createPayment(w http.ResponseWriter, r *http.Request, a *Authorization) {
	var in validators.PaymentInput
	if err := decodeBody(r, &in, validators.MsgInvalidPaymentData); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := validators.ValidateCreatePayment(&in, s.payments.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.payments.Create(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, created, "Payment created")
}

// modifyPayment replaces a payment; the body must carry every field.
func (s *HTTPServer) modifyPayment(w http.ResponseWriter, r *http.Request, a *Authorization) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in validators.PaymentInput
	if err := decodeBody(r, &in, validators.MsgPaymentUpdateMissing); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := validators.ValidateUpdatePayment(&in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.payments.Update(r.Context(), id, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated, "Payment modified")
}

func (s *HTTPServer) listPayments(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleAdmin) {
		return
	}
	payments, err := s.payments.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, payments, "")
}

func (s *HTTPServer) myPayments(w http.ResponseWriter, r *http.Request, a *Authorization) {
	payments, err := s.payments.ListForPayer(r.Context(), a.User.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, payments, "")
}

func (s *HTTPServer) getPayment(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleAdmin) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.payments.Fetch(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p, "")
}

func (s *HTTPServer) confirmPayment(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleMemberOfficer) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.payments.Confirm(r.Context(), id, a.User.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p, "Payment confirmed")
}
