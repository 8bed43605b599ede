package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/user"
)

type registrarApi struct {
	deps ServerDeps
}

func registerRegistrarAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := registrarApi{deps: deps}

	rg := g.Group("/registrar", jwt, rolesMiddleware(user.RoleRegistrar, user.RoleAdmin))
	rg.POST("/students", api.createStudent)
	rg.POST("/reset-password", api.resetPassword)
}

func (api *registrarApi) createStudent(ctx echo.Context) error {
	return createStudent(ctx, api.deps)
}

func (api *registrarApi) resetPassword(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password reset for " + data.Username})
}

type MessageResponse struct {
	Message string `json:"message"`
}
