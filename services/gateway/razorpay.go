// Package gatewaysvc talks to the Razorpay payment gateway.
package gatewaysvc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"github.com/trezcool/feedesk/core"
	"github.com/trezcool/feedesk/core/payment"
)

const (
	serviceName = "razorpay"
	currency    = "INR"

	placeholderKey = "your_razorpay_key_id"
)

var (
	errNotConfigured     = errors.New("Razorpay API Keys are not configured")
	errSignatureMismatch = errors.New("Transaction validation failed!")
)

type razorpayGateway struct {
	keyID  string
	secret string
	client *razorpay.Client
}

var _ payment.Gateway = (*razorpayGateway)(nil)

func NewRazorpayGateway(conf core.GatewayConfig) payment.Gateway {
	keyID, secret := cleanKey(conf.KeyID), cleanKey(conf.KeySecret)
	return &razorpayGateway{
		keyID:  keyID,
		secret: secret,
		client: razorpay.NewClient(keyID, secret),
	}
}

func cleanKey(k string) string {
	return strings.TrimSpace(strings.Trim(k, `"`))
}

func (g *razorpayGateway) KeyID() string {
	return g.keyID
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (payment.Order, error) {
	if g.keyID == "" || g.keyID == placeholderKey {
		return payment.Order{}, core.NewExternalServiceError(serviceName, errNotConfigured, false)
	}
	if err := ctx.Err(); err != nil {
		return payment.Order{}, err
	}

	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return payment.Order{}, core.NewExternalServiceError(serviceName, errors.Wrap(err, "creating order"), false)
	}
	return orderFromBody(body), nil
}

func orderFromBody(body map[string]interface{}) payment.Order {
	str := func(k string) string {
		s, _ := body[k].(string)
		return s
	}
	var amount int64
	switch v := body["amount"].(type) {
	case float64:
		amount = decimal.NewFromFloat(v).IntPart()
	case int64:
		amount = v
	case int:
		amount = int64(v)
	}
	return payment.Order{
		ID:       str("id"),
		Entity:   str("entity"),
		Amount:   amount,
		Currency: str("currency"),
		Receipt:  str("receipt"),
		Status:   str("status"),
	}
}

// VerifySignature checks the checkout signature: hex HMAC-SHA256 of "orderID|paymentID" keyed by the secret.
// Verification is skipped when no secret is configured.
func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) error {
	if g.secret == "" {
		return nil
	}
	if !hmac.Equal([]byte(Sign(g.secret, orderID, paymentID)), []byte(signature)) {
		return core.NewExternalServiceError(serviceName, errSignatureMismatch, true)
	}
	return nil
}

// Sign computes the checkout signature of a payment.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
