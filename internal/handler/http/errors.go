package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/malatesh-s-hulbanni-12/house-rental/pkg/errors"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/httputil"
)

// writeFailure writes err as the error envelope. Unexpected errors are
// reported as 500s under the route's own message, with the underlying
// error text in "error".
func writeFailure(w http.ResponseWriter, r *http.Request, err error, message string, logger *slog.Logger) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) && apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		internal := apperrors.Internal(err)
		if message != "" {
			internal.Message = message
		}
		err = internal
	}
	httputil.WriteError(w, r, err, logger)
}
