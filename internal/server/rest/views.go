package rest

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, msgServerError, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, status int, message string) {
	render(w, status, "serviceError.html", struct {
		Status int
		Error  string
	}{Status: status, Error: message})
}

func renderProfile(w http.ResponseWriter, u *models.User) {
	render(w, http.StatusOK, "profile.html", u)
}
