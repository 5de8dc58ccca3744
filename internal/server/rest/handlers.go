package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// fail writes err as an envelope. Internal errors are logged with their
// cause and reach the client only as "Server error".
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorResponse(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	respondError(w, status, msg)
}

// decodeBody reads a JSON body into v. Any decoding problem becomes a
// validation error carrying msg.
func decodeBody(r *http.Request, v any, msg string) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError(msg)
		}
		return &common.ServiceError{Kind: common.KindValidation, Message: msg, Err: err}
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("Invalid id")
	}
	return id, nil
}

func (s *HTTPServer) healthz(w http.ResponseWriter, r *http.Request) {
	if s.opts.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.DB.PingContext(ctx); err != nil {
			s.logger.Warn(r.Context(), "database ping failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func (s *HTTPServer) getPrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := s.policies.Fetch(r.Context(), mux.Vars(r)["policy"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, p, "Success")
}
