package router

import (
	_ "go-users-api/docs"
	"go-users-api/handler"
	"go-users-api/metrics"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter registers every route. Writes go through the bearer-token check
// when jwtSecret is set.
func NewRouter(userHandler *handler.UserHandler, healthHandler *handler.HealthHandler, jwtSecret string) http.Handler {
	mux := http.NewServeMux()
	auth := handler.AuthMiddleware(jwtSecret)

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, handler.MetricsMiddleware(pattern, h))
	}

	handle("GET /health", http.HandlerFunc(healthHandler.Live))
	handle("GET /health/ready", http.HandlerFunc(healthHandler.Ready))

	// GET patterns also serve HEAD.
	handle("GET /users/{id}", handler.ErrorHandlingMiddleware(userHandler.GetUser))
	handle("GET /users", handler.ErrorHandlingMiddleware(userHandler.ListUsers))
	handle("OPTIONS /users", handler.ErrorHandlingMiddleware(userHandler.UserOptions))
	handle("POST /users", auth(handler.ErrorHandlingMiddleware(userHandler.CreateUser)))
	handle("PUT /users/{id}", auth(handler.ErrorHandlingMiddleware(userHandler.ReplaceUser)))
	handle("PATCH /users/{id}", auth(handler.ErrorHandlingMiddleware(userHandler.PatchUser)))
	handle("DELETE /users/{id}", auth(handler.ErrorHandlingMiddleware(userHandler.DeleteUser)))

	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return handler.LoggingMiddleware(mux)
}
