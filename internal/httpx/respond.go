package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   apperr.Kind `json:"error"`
	Message string      `json:"message"`
	Detail  any         `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case apperr.KindInvalidArgument, apperr.KindInsufficientPayment:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindStockInsufficient:
		return http.StatusConflict
	case apperr.KindUpstream:
		if d, ok := e.Detail.(apperr.UpstreamDetail); ok && d.Reason == apperr.ReasonTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a {"error","message","detail"} body.
// Internal causes are logged, never returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{Error: apperr.KindInternal, Message: "internal error"}
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindInternal {
		body = errorBody{Error: e.Kind, Message: e.Message, Detail: e.Detail}
	}
	switch {
	case code >= 500 && body.Error == apperr.KindUpstream:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	case code >= 500:
		log.Printf("[%s] %s %s: internal: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}
	writeJSON(w, code, body)
}

// decodeJSON reads a JSON body into v. Unknown fields are ignored; an
// empty body is accepted only when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return apperr.InvalidArgument("invalid json body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidArgument("invalid transaction id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func traceID(r *http.Request) string { return middleware.GetReqID(r.Context()) }
