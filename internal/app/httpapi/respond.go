package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/puskata/library-service/internal/app/domain/user"
	authsvc "github.com/puskata/library-service/internal/app/services/auth"
	"github.com/puskata/library-service/internal/app/storage"
)

var (
	errForbidden  = errors.New("You can only access your own records")
	errBadRequest = errors.New("Invalid request")
)

// envelope is the response shape every mobile screen reads.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type authEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    *user.User `json:"user,omitempty"`
	Token   string     `json:"token,omitempty"`
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }
func (e badRequest) Is(target error) bool {
	return target == errBadRequest
}

func invalid(msg string) error { return badRequest{msg: msg} }

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	return decodeBody(body, dst, true)
}

// decodePatch accepts fields dst does not know about. The app sends the whole
// cached user merged with the edited fields.
func decodePatch(body io.ReadCloser, dst interface{}) error {
	return decodeBody(body, dst, false)
}

func decodeBody(body io.ReadCloser, dst interface{}, strict bool) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return invalid("Invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// writeError maps err to a status and writes a failure envelope. notFound is
// the message used when err wraps storage.ErrNotFound.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	status, message := statusFor(err)
	if status == http.StatusNotFound && notFound != "" {
		message = notFound
	}
	if status >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	}
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, authsvc.ErrMissingFields):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, authsvc.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return parseID(mux.Vars(r)[name], name)
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("Invalid " + name)
	}
	return id, nil
}
