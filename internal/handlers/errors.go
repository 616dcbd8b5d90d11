package handlers

import (
	"net/http"
	"strings"

	"github.com/aardel/launchpad/internal/launcher"
)

// NotFoundHandler handles 404 errors.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusNotFound, "NOT_FOUND", "The requested resource was not found")
}

// MethodNotAllowedHandler handles 405 errors.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource")
}

// statusByClass maps launcher error classes to HTTP status codes.
var statusByClass = map[string]int{
	"vault_locked":          http.StatusLocked,
	"invalid_password":      http.StatusUnauthorized,
	"not_setup":             http.StatusConflict,
	"already_setup":         http.StatusConflict,
	"decryption_failed":     http.StatusUnprocessableEntity,
	"no_address":            http.StatusUnprocessableEntity,
	"unknown_protocol":      http.StatusUnprocessableEntity,
	"unknown_item_type":     http.StatusUnprocessableEntity,
	"browser_not_found":     http.StatusFailedDependency,
	"terminal_unavailable":  http.StatusFailedDependency,
	"app_not_found":         http.StatusFailedDependency,
	"clipboard_unavailable": http.StatusFailedDependency,
	"spawn_failed":          http.StatusInternalServerError,
	"item_not_found":        http.StatusNotFound,
	"group_not_found":       http.StatusNotFound,
}

// renderError writes err as an API error. The message is the user-facing
// description, never the wrapped error chain.
func renderError(w http.ResponseWriter, err error) {
	class := launcher.Class(err)
	status, ok := statusByClass[class]
	if !ok {
		status = http.StatusInternalServerError
		class = "internal_error"
	}
	message := launcher.Describe(err)
	if status == http.StatusInternalServerError {
		message = "Something went wrong. Check the server log."
	}
	jsonError(w, status, strings.ToUpper(class), message)
}
