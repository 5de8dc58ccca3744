package rest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *HTTPServer) doLogin(w http.ResponseWriter, r *http.Request) (*tokenResponse, bool) {
	var c credentials
	if err := decodeBody(r, &c, "Missing username or password"); err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing username or password")
		return nil, false
	}

	token, u, err := s.users.Login(r.Context(), strings.TrimSpace(c.Username), c.Password)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return &tokenResponse{Token: token, User: u}, true
}

// authenticate is the API login: the token is returned in the body only.
func (s *HTTPServer) authenticate(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.doLogin(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, resp, "Authenticated")
}

// login is the browser login: the token is also stored in a cookie.
func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.doLogin(w, r)
	if !ok {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    resp.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, resp, "Logged in")
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, nil, "Logged out")
}

// session reports who the caller is, or null data for anonymous callers.
func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request, a *Authorization) {
	if a == nil {
		respond(w, http.StatusOK, nil, "Not logged in")
		return
	}
	respond(w, http.StatusOK, a.User, "")
}

func (s *HTTPServer) profile(w http.ResponseWriter, r *http.Request, a *Authorization) {
	renderProfile(w, a.User)
}
