package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/memberservice/internal/common"
)

const msgServerError = "Server error"

// ServiceResponse is the body of every JSON response. Failures carry a nil
// Data and Success false; clients must check both the status and Success.
type ServiceResponse struct {
	Data    any     `json:"data"`
	Message *string `json:"message"`
	Success bool    `json:"success"`
}

func NewServiceResponse(data any, message string, success bool) ServiceResponse {
	resp := ServiceResponse{Data: data, Success: success}
	if message != "" {
		resp.Message = &message
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, resp ServiceResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, NewServiceResponse(data, message, true))
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, NewServiceResponse(nil, message, false))
}

// errorResponse maps err onto a status and a message that is safe to show.
// Internal failures never expose their cause.
func errorResponse(err error) (int, string) {
	var se *common.ServiceError
	if errors.As(err, &se) && se.Kind != common.KindInternal {
		return se.Status(), se.Message
	}
	return http.StatusInternalServerError, msgServerError
}
