package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler) {
	imports := server.Group("/api/v1/job-imports")
	imports.POST("", importHandler.Create)
	imports.GET("/template", importHandler.Template)
	imports.GET("/:id", importHandler.Get)
	imports.POST("/:id/cancel", importHandler.Cancel)
	imports.POST("/:id/retry", importHandler.Retry)
	imports.DELETE("/:id", importHandler.Delete)
}
