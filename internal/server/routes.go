package server

import (
	"github.com/OFFIS-RIT/niemgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/niemgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.GET("/mapping-schema", routes.GetMappingSchemaHandler)

	// Schema routes
	apiRoutes.PUT("/schemas/:id", routes.PutSchemaHandler, middleware.RequirePermission(middleware.PermissionSchemaWrite))
	apiRoutes.GET("/schemas/:id", routes.GetSchemaHandler, middleware.RequireAnyPermission(middleware.PermissionSchemaRead, middleware.PermissionSchemaWrite))
	apiRoutes.POST("/schemas/:id/convert", routes.ConvertHandler, middleware.RequirePermission(middleware.PermissionInstanceConvert))

	// Upload routes
	apiRoutes.POST("/uploads", routes.CreateUploadHandler, middleware.RequirePermission(middleware.PermissionUploadCreate))
}
