package routes

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	pkghttpx "movienight-server/pkg/httpx"
)

// AdminLogin handles POST /admin/login: password in, session token out.
func AdminLogin(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type loginReq struct {
			Password string `json:"password"`
		}
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.BadRequest("invalid json", err))
			return
		}
		if len(d.AdminHash) == 0 {
			pkghttpx.WriteError(w, r, pkghttpx.Unauthorized("admin login is not configured", nil))
			return
		}
		if err := bcrypt.CompareHashAndPassword(d.AdminHash, []byte(req.Password)); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Unauthorized("invalid credentials", nil))
			return
		}
		token, err := d.Sessions.Create(r.Context())
		if err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Internal("failed to create session", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"token": token})
	}
}

// AdminLogout handles POST /admin/logout: revokes the presented session.
func AdminLogout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			pkghttpx.WriteError(w, r, pkghttpx.Unauthorized("missing session token", nil))
			return
		}
		if err := d.Sessions.Revoke(r.Context(), token); err != nil {
			pkghttpx.WriteError(w, r, pkghttpx.Unauthorized("invalid session token", err))
			return
		}
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
	}
}
