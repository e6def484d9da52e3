package middleware

import (
	"github.com/OFFIS-RIT/niemgraph/internal/queue"
	"github.com/OFFIS-RIT/niemgraph/pkg/graph"
	"github.com/OFFIS-RIT/niemgraph/pkg/mapping"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
}

// App carries the shared dependencies of the handlers. Queue is nil when
// no broker is configured. Keyfunc verifies bearer tokens; with neither
// Keyfunc nor MasterAPIKey set every request is treated as an admin.
type App struct {
	Store        mapping.Store
	Graph        *graph.GraphClient
	Compile      mapping.CompileOptions
	Queue        queue.Channel
	ConvertQueue string
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
