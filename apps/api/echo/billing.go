package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/billing"
	"github.com/trezcool/darasa/core/user"
)

type billingApi struct {
	svc      *billing.Service
	validate *validator.Validate
}

func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service, validate *validator.Validate) {
	api := billingApi{svc: svc, validate: validate}

	ig := g.Group("/invoices", jwt)
	ig.GET("/me", api.queryOwn, roleMiddleware(user.RoleStudent))

	ag := ig.Group("", adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("", api.issue)
	ag.POST("/:id/pay", api.markPaid)
}

// queryOwn lists the calling student's invoices.
func (api *billingApi) queryOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	invs, err := api.svc.Query(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying own invoices")
	}
	if invs == nil {
		invs = []billing.Invoice{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *billingApi) query(ctx echo.Context) error {
	invs, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("student_id"))
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	if invs == nil {
		invs = []billing.Invoice{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *billingApi) retrieve(ctx echo.Context) error {
	inv, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *billingApi) issue(ctx echo.Context) error {
	var data billing.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate); err != nil {
		return err
	}

	inv, err := api.svc.Issue(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "issuing invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *billingApi) markPaid(ctx echo.Context) error {
	inv, err := api.svc.MarkPaid(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking invoice paid")
	}
	return ctx.JSON(http.StatusOK, inv)
}
