package httpx

import "net/http"

// Machine-readable error codes returned to clients.
const (
	CodeAuthRequired   = "AUTH_REQUIRED"
	CodeTokenInvalid   = "TOKEN_INVALID"
	CodeRoleNotAllowed = "ROLE_NOT_ALLOWED"
	CodeRoleInvalid    = "ROLE_INVALID"
	CodePermDenied     = "PERM_DENIED"
	CodeValidation     = "VALIDATION_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeDuplicate      = "DUPLICATE"
	CodeInternal       = "INTERNAL"
)

// ErrorBody is the structured error envelope sent to clients.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error sends a structured JSON error response.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}
