package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/feedesk/core/payment"
	"github.com/trezcool/feedesk/core/user"
)

type paymentApi struct {
	deps ServerDeps
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{deps: deps}
	studentOnly := rolesMiddleware(user.RoleStudent)

	pg := g.Group("/payments", jwt)
	pg.GET("/key", api.key)
	pg.POST("/create-order", api.createOrder, studentOnly)
	pg.POST("/verify", api.verify, studentOnly)
	pg.GET("/my-history", api.history, studentOnly)
}

func (api *paymentApi) key(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, KeyResponse{Key: api.deps.PaymentSvc.KeyID()})
}

func (api *paymentApi) createOrder(ctx echo.Context) error {
	var data payment.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	order, err := api.deps.PaymentSvc.CreateOrder(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating order")
	}
	return ctx.JSON(http.StatusOK, order)
}

func (api *paymentApi) verify(ctx echo.Context) error {
	var data payment.Verification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Verification")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	pay, err := api.deps.PaymentSvc.Verify(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "verifying payment")
	}
	return ctx.JSON(http.StatusOK, VerifyResponse{Message: "Payment verified successfully", Payment: pay})
}

func (api *paymentApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	pays, err := api.deps.PaymentSvc.History(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	return ctx.JSON(http.StatusOK, pays)
}

type (
	KeyResponse struct {
		Key string `json:"key"`
	}

	VerifyResponse struct {
		Message string          `json:"message"`
		Payment payment.Payment `json:"payment"`
	}
)
