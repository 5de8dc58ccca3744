package rest

import (
	"net/http"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
	"github.com/dmitrijs2005/memberservice/internal/server/validators"
)

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleMemberOfficer) {
		return
	}
	users, err := s.users.List(r.Context(), models.ParseUserFilter(r.URL.Query().Get("filter")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, users, "")
}

func (s *HTTPServer) searchUsers(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleMemberOfficer) {
		return
	}
	users, err := s.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, users, "")
}

func (s *HTTPServer) unpaidUsers(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleMemberOfficer) {
		return
	}
	users, err := s.users.Unpaid(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, users, "")
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request, a *Authorization) {
	respond(w, http.StatusOK, a.User, "")
}

// canAccessUser lets users see themselves and member officers see everyone.
func canAccessUser(a *Authorization, id int64) bool {
	return a.User.ID == id || a.User.Role.AtLeast(models.RoleMemberOfficer)
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request, a *Authorization) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !canAccessUser(a, id) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	u, err := s.users.FetchUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, u, "")
}

func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request) {
	var in validators.NewUserInput
	if err := decodeBody(r, &in, "Invalid POST data"); err != nil {
		s.fail(w, r, err)
		return
	}
	u, password, err := validators.ValidateCreateUser(&in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.users.Create(r.Context(), u, password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, created, "User created")
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request, a *Authorization) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !canAccessUser(a, id) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var in validators.UserUpdateInput
	if err := decodeBody(r, &in, "Invalid PATCH data"); err != nil {
		s.fail(w, r, err)
		return
	}

	existing, err := s.users.FetchUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	u, password, err := validators.ValidateUpdateUser(existing, &in, a.User)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.users.Update(r.Context(), u, password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, updated, "User modified")
}

func (s *HTTPServer) deleteUser(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if !requireRole(w, a, models.RoleAdmin) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if id == a.User.ID {
		respondError(w, http.StatusBadRequest, "Cannot delete yourself")
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, nil, "User deleted")
}
