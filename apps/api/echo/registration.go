package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/registration"
)

type registrationApi struct {
	svc      *registration.Service
	validate *validator.Validate
}

func registerRegistrationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *registration.Service,
	validate *validator.Validate,
) {
	api := registrationApi{svc: svc, validate: validate}

	rg := g.Group("/registrations")

	// public: anyone may apply
	rg.POST("", api.submit)

	// review endpoints are admin-only
	ag := rg.Group("", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/approve", api.approve)
	ag.POST("/:id/reject", api.reject)
}

func (api *registrationApi) submit(ctx echo.Context) error {
	var data registration.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting application")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *registrationApi) query(ctx echo.Context) error {
	filter := new(registration.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []registration.Application{})
	}

	apps, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []registration.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *registrationApi) retrieve(ctx echo.Context) error {
	app, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *registrationApi) approve(ctx echo.Context) error {
	var data ReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	app, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Notes)
	if err != nil {
		return errors.Wrap(err, "approving application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *registrationApi) reject(ctx echo.Context) error {
	var data ReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	app, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Notes)
	if err != nil {
		return errors.Wrap(err, "rejecting application")
	}
	return ctx.JSON(http.StatusOK, app)
}

type ReviewRequest struct {
	Notes string `json:"notes"`
}
