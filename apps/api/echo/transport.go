package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

type transportApi struct {
	deps ServerDeps
}

func registerTransportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := transportApi{deps: deps}

	tg := g.Group("/transport", jwt, rolesMiddleware(user.RoleTransportDept, user.RoleAdmin))
	tg.GET("/students/search", api.searchStudent)
	tg.PUT("/students/:usn", api.update)
}

func (api *transportApi) searchStudent(ctx echo.Context) error {
	return searchStudent(ctx, api.deps.StudentSvc)
}

func (api *transportApi) update(ctx echo.Context) error {
	var data student.TransportUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransportUpdate")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.UpdateTransport(ctx.Request().Context(), ctx.Param("usn"), data)
	if err != nil {
		return errors.Wrap(err, "updating transport")
	}
	return ctx.JSON(http.StatusOK, st)
}
