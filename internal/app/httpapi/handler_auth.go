package httpapi

import (
	"net/http"

	"github.com/puskata/library-service/internal/app/domain/user"
	"github.com/puskata/library-service/internal/app/session"
	"github.com/puskata/library-service/internal/middleware"
)

func writeSession(w http.ResponseWriter, message string, sess session.Session) {
	u := sess.User
	writeJSON(w, http.StatusOK, authEnvelope{Success: true, Message: message, User: &u, Token: sess.Token})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	sess, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	noteAuditUser(r.Context(), sess.User)
	writeSession(w, "Login successful", sess)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	sess, err := h.app.Auth.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	noteAuditUser(r.Context(), sess.User)
	writeSession(w, "Registration successful", sess)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	writeOK(w, "Logout successful", nil)
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	writeSession(w, "Session restored", session.Session{
		Token: middleware.TokenFromContext(r.Context()),
		User:  caller(r),
	})
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch user.ProfilePatch
	if err := decodePatch(r.Body, &patch); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	updated, err := h.app.Auth.UpdateProfile(r.Context(), middleware.TokenFromContext(r.Context()), patch)
	if err != nil {
		h.writeError(w, r, err, "User not found")
		return
	}
	writeOK(w, "Profile updated successfully", updated)
}
