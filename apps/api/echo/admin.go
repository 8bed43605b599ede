package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/exam"
	"github.com/trezcool/feedesk/core/student"
	"github.com/trezcool/feedesk/core/user"
)

type adminApi struct {
	deps ServerDeps
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{deps: deps}
	adminOnly := rolesMiddleware(user.RoleAdmin)

	ag := g.Group("/admin", jwt)

	sg := ag.Group("/students", adminOnly)
	sg.POST("", api.createStudent)
	sg.GET("/search", api.searchStudent)
	sg.PUT("/:usn/fees", api.updateFees)
	sg.GET("/:usn/reconciliation", api.reconciliation)
	sg.POST("/:usn/reconcile", api.reconcile)

	cg := ag.Group("/config", adminOnly)
	cg.GET("", api.config)
	cg.POST("/gov-fee", api.setFeeSchedule)

	ng := ag.Group("/notifications")
	ng.GET("", api.activeNotifications)
	ng.POST("", api.createNotification, rolesMiddleware(user.RoleAdmin, user.RoleExamHead))
	ng.PUT("/:id", api.updateNotification, rolesMiddleware(user.RoleExamHead, user.RoleAdmin))

	ag.GET("/stats", api.stats, rolesMiddleware(user.RoleAdmin, user.RolePrincipal, user.RoleExamHead))
}

func (api *adminApi) createStudent(ctx echo.Context) error {
	return createStudent(ctx, api.deps)
}

func (api *adminApi) searchStudent(ctx echo.Context) error {
	return searchStudent(ctx, api.deps.StudentSvc)
}

func (api *adminApi) updateFees(ctx echo.Context) error {
	var data student.UpdateFees
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFees")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.UpdateFees(ctx.Request().Context(), ctx.Param("usn"), data)
	if err != nil {
		return errors.Wrap(err, "updating fees")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *adminApi) reconciliation(ctx echo.Context) error {
	usn := ctx.Param("usn")
	drifts, err := api.deps.StudentSvc.Reconciliation(ctx.Request().Context(), usn)
	if err != nil {
		return errors.Wrap(err, "computing reconciliation")
	}
	inSync := true
	for _, d := range drifts {
		inSync = inSync && d.InSync()
	}
	return ctx.JSON(http.StatusOK, ReconciliationResponse{USN: usn, InSync: inSync, Drifts: drifts})
}

func (api *adminApi) reconcile(ctx echo.Context) error {
	st, err := api.deps.StudentSvc.Reconcile(ctx.Request().Context(), ctx.Param("usn"))
	if err != nil {
		return errors.Wrap(err, "reconciling student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *adminApi) config(ctx echo.Context) error {
	fee, err := api.deps.StudentSvc.DefaultGovFee(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading default gov fee")
	}
	return ctx.JSON(http.StatusOK, ConfigResponse{DefaultGovFee: fee})
}

func (api *adminApi) setFeeSchedule(ctx echo.Context) error {
	var data student.FeeSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FeeSchedule")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	res, err := api.deps.StudentSvc.SetFeeSchedule(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting fee schedule")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *adminApi) createNotification(ctx echo.Context) error {
	var data exam.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	n, err := api.deps.ExamSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *adminApi) updateNotification(ctx echo.Context) error {
	var data exam.UpdateNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNotification")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	n, err := api.deps.ExamSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating notification")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *adminApi) activeNotifications(ctx echo.Context) error {
	ns, err := api.deps.ExamSvc.ListActive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	return ctx.JSON(http.StatusOK, ns)
}

func (api *adminApi) stats(ctx echo.Context) error {
	stats, err := api.deps.StudentSvc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

type (
	ReconciliationResponse struct {
		USN    string          `json:"usn"`
		InSync bool            `json:"inSync"`
		Drifts []student.Drift `json:"drifts"`
	}

	ConfigResponse struct {
		DefaultGovFee int64 `json:"defaultGovFee"`
	}
)
