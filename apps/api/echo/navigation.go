package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/navigation"
)

func registerNavigationAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	ng := g.Group("/navigation", jwt)
	ng.GET("", queryRoutes)
	ng.GET("/resolve", resolvePath)
}

func queryRoutes(ctx echo.Context) error {
	routes := navigation.Routes(getContextRole(ctx))
	if routes == nil {
		routes = []navigation.Route{}
	}
	return ctx.JSON(http.StatusOK, routes)
}

func resolvePath(ctx echo.Context) error {
	res := navigation.Resolve(getContextRole(ctx), ctx.QueryParam("path"))
	return ctx.JSON(http.StatusOK, res)
}
