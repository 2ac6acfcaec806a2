package handler

import (
	"go-users-api/common"
	"go-users-api/logger"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// AppHandler is a handler that reports failures as *common.AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *common.AppError

// ErrorHandlingMiddleware sends the returned *common.AppError. A panic in
// next is logged and answered with 500.
func ErrorHandlingMiddleware(next AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Log.WithFields(logrus.Fields{
					"panic":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
					"stack":  string(debug.Stack()),
				}).Error("Recovered from handler panic")
				common.NewAppError(http.StatusInternalServerError, "Internal server error", nil).Send(w)
			}
		}()

		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}
