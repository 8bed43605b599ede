package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

type studentApi struct {
	svc *student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{svc: deps.StudentSvc}

	sg := g.Group("/students", jwt, rolesMiddleware(user.RoleStudent))
	sg.GET("/profile", api.profile)
	sg.GET("/eligibility", api.eligibility)
}

func (api *studentApi) profile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.GetByUserID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding student by user ID")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) eligibility(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.Eligibility(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "evaluating eligibility")
	}
	return ctx.JSON(http.StatusOK, report)
}

// shared by the admin, registrar & transport APIs

func createStudent(ctx echo.Context, deps ServerDeps) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(deps.Validate); err != nil {
		return err
	}

	st, err := deps.StudentSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func searchStudent(ctx echo.Context, svc *student.Service) error {
	st, err := svc.Search(ctx.Request().Context(), ctx.QueryParam("query"))
	if err != nil {
		return errors.Wrap(err, "searching student")
	}
	return ctx.JSON(http.StatusOK, st)
}
