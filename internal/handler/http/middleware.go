package http

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Ai-Eli-ML/veliano-sub003/pkg/httputil"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/logger"
	"github.com/Ai-Eli-ML/veliano-sub003/pkg/middleware"
)

var visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// VisitorID reads the X-Visitor-ID header into the request context. A
// request without one is assigned a new id, which is echoed back in the
// response header so the client can keep using it. Malformed ids are
// rejected.
func VisitorID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.HeaderVisitorID)
		switch {
		case id == "":
			id = uuid.NewString()
		case !visitorIDPattern.MatchString(id):
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Visitor-ID header is malformed"},
			})
			return
		}

		w.Header().Set(middleware.HeaderVisitorID, id)
		ctx := logger.WithVisitorID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func visitorIDFromRequest(r *http.Request) string {
	return logger.VisitorIDFromContext(r.Context())
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
