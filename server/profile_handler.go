package server

import (
	"net/http"
)

// ProfileHandler serves the caller's own user record
func ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
