package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stakeline/stakeline/internal/domain"
)

// accountHeader carries the caller identity on state-mutating requests.
const accountHeader = "X-Account"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain sentinel error to an HTTP status code and
// writes the JSON error body. Unknown errors become 500s with a generic
// message so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMinimumStakeNotMet),
		errors.Is(err, domain.ErrOverflow),
		errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, unwrapMsg(err))
	case errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrNotInitialized),
		errors.Is(err, domain.ErrPoolInactive),
		errors.Is(err, domain.ErrPoolPaused),
		errors.Is(err, domain.ErrNotPaused),
		errors.Is(err, domain.ErrYieldNotYetDue),
		errors.Is(err, domain.ErrNoYieldAvailable):
		writeError(w, http.StatusConflict, unwrapMsg(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// unwrapMsg returns the innermost error message, stripping service prefixes
// from the client-facing text.
func unwrapMsg(err error) string {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

// callerAccount extracts and validates the caller identity from the
// X-Account header. It returns false after writing the error response when
// the header is missing or not a valid hex address.
func callerAccount(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	raw := r.Header.Get(accountHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing "+accountHeader+" header")
		return "", false
	}
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return "", false
	}
	return domain.Account(raw).Normalize(), true
}

// accountParam extracts and validates a hex account address from the request
// path. It returns false after writing the error response on failure.
func accountParam(w http.ResponseWriter, r *http.Request, name string) (domain.Account, bool) {
	raw := r.PathValue(name)
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return "", false
	}
	return domain.Account(raw).Normalize(), true
}

// parseAddress validates a hex account address from a request body field.
func parseAddress(raw string) (domain.Account, bool) {
	if !common.IsHexAddress(raw) {
		return "", false
	}
	return domain.Account(raw).Normalize(), true
}

// parseListOpts extracts standard pagination and time-range parameters from
// the query string. Defaults: limit=50 (max 500), offset=0. Time bounds are
// RFC 3339.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	opts := domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}

	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Since = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Until = &t
		}
	}

	return opts
}

// decodeBody decodes a JSON request body into dst. It returns false after
// writing the error response when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
