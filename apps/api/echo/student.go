package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

type studentApi struct {
	svc    *student.Service
	usrSvc user.ServiceInterface
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, usrSvc user.ServiceInterface) {
	api := studentApi{svc: svc, usrSvc: usrSvc}

	sg := g.Group("/students", jwt)
	sg.GET("/me", api.retrieveOwn, roleMiddleware(user.RoleStudent))

	// staff endpoints, per the portal route tables
	tg := sg.Group("", roleMiddleware(user.RoleAdmin, user.RoleTeacher))
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	sg.PUT("/:id/enrollment-status", api.setEnrollmentStatus, adminMiddleware())
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}

	students, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetByUserID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) retrieveOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	std, err := api.svc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) setEnrollmentStatus(ctx echo.Context) error {
	var data EnrollmentStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentStatusRequest")
	}
	if !data.Status.IsValid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown enrollment status")
	}

	std, err := api.svc.SetEnrollmentStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "setting enrollment status")
	}
	return ctx.JSON(http.StatusOK, std)
}

type EnrollmentStatusRequest struct {
	Status student.EnrollmentStatus `json:"status"`
}
