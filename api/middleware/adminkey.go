package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielbikeshop/backend/api/responses"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// AdminKey guards the back-office routes with a shared API token. The shop
// has a single operator, so there is no user model behind it.
func AdminKey(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin token not configured"))
				return
			}

			presented := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if presented == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin token required"))
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
