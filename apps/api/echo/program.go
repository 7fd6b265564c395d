package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/program"
)

type programApi struct {
	svc      *program.Service
	validate *validator.Validate
}

func registerProgramAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *program.Service, validate *validator.Validate) {
	api := programApi{svc: svc, validate: validate}

	// the program catalog is public: applicants pick from it
	pg := g.Group("/programs")
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)

	ag := pg.Group("", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
}

func (api *programApi) query(ctx echo.Context) error {
	programs, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if programs == nil {
		programs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, programs)
}

func (api *programApi) retrieve(ctx echo.Context) error {
	prg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting program")
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *programApi) create(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	prg, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prg)
}

func (api *programApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	prg, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting program")
	}

	var data program.NewProgram
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err = api.validate.StructCtx(reqCtx, data); err != nil {
		return err
	}

	prg.Name = data.Name
	prg.Description = data.Description
	prg.DurationMonths = data.DurationMonths
	prg.PriceCents = data.PriceCents
	prg.Capacity = data.Capacity

	prg, err = api.svc.Update(reqCtx, prg)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, prg)
}
