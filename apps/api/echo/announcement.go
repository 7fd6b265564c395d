package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/user"
)

type announcementApi struct {
	svc      *announcement.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerAnnouncementAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *announcement.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := announcementApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.queryVisible)

	adg := ag.Group("", adminMiddleware())
	adg.GET("/all", api.queryAll)
	adg.POST("", api.create)
	adg.DELETE("", api.destroyMultiple)
	adg.DELETE("/:id", api.destroy)
}

// queryVisible returns live announcements addressed to the caller's role.
func (api *announcementApi) queryVisible(ctx echo.Context) error {
	anns, err := api.svc.QueryVisible(ctx.Request().Context(), getContextRole(ctx))
	if err != nil {
		return errors.Wrap(err, "querying visible announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) queryAll(ctx echo.Context) error {
	anns, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ann, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *announcementApi) destroyMultiple(ctx echo.Context) error {
	var data DestroyMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.IDs...); err != nil {
		return errors.Wrap(err, "deleting announcements")
	}
	return ctx.NoContent(http.StatusNoContent)
}
