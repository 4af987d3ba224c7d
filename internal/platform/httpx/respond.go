// Package httpx provides JSON response utilities and the outbound
// response-transform chain used by the authorization layer.
package httpx

import (
	"encoding/json"
	"net/http"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Respond sends data as JSON after applying any response transforms
// installed on the request context. Transforms operate on generic JSON
// values, so data is round-tripped through encoding/json before they run.
func Respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	transform := TransformFromContext(r.Context())
	if transform == nil {
		JSON(w, status, data)
		return
	}
	generic, err := toGeneric(data)
	if err != nil {
		Error(w, http.StatusInternalServerError, CodeInternal, "internal security error")
		return
	}
	JSON(w, status, transform(generic))
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func toGeneric(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
