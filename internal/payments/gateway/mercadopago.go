// Package gateway talks to the payment provider when a payment has to be
// refunded at the source.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"eventquote_backend/platform/config"
	"eventquote_backend/platform/logger"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/refund"
)

var (
	ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrNotConfigured      = errors.New("mercado pago gateway not configured")
)

// Refunder reverses a provider-side payment.
type Refunder interface {
	Refund(ctx context.Context, providerPaymentID string) (refundID string, err error)
}

// MercadoPagoGateway refunds payments through the Mercado Pago API.
type MercadoPagoGateway struct {
	client   refund.Client
	mockMode bool
	log      *logger.Logger
}

// NewMercadoPagoGateway creates the gateway. In mock mode no API call is made.
func NewMercadoPagoGateway(cfg config.PaymentGatewayConfig, log *logger.Logger) (*MercadoPagoGateway, error) {
	if cfg.GetPaymentGatewayMock() {
		log.Info("payment gateway mock mode enabled")
		return &MercadoPagoGateway{mockMode: true, log: log}, nil
	}

	token := cfg.GetMercadoPagoAccessToken()
	if token == "" {
		return nil, ErrMissingAccessToken
	}

	sdkCfg, err := mpconfig.New(token)
	if err != nil {
		return nil, fmt.Errorf("create mercado pago config: %w", err)
	}
	log.Info("mercado pago refund client initialized")

	return &MercadoPagoGateway{client: refund.NewClient(sdkCfg), log: log}, nil
}

// Refund issues a full refund for the provider payment.
func (g *MercadoPagoGateway) Refund(ctx context.Context, providerPaymentID string) (string, error) {
	if g != nil && g.mockMode {
		g.log.Info("payment gateway mock refund", "providerPaymentId", providerPaymentID)
		return "mock-" + providerPaymentID, nil
	}
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}

	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return "", fmt.Errorf("invalid provider payment id %q: %w", providerPaymentID, err)
	}

	resp, err := g.client.Create(ctx, id)
	if err != nil {
		return "", fmt.Errorf("refund provider payment %s: %w", providerPaymentID, err)
	}

	g.log.Info("provider payment refunded", "providerPaymentId", providerPaymentID, "refundId", resp.ID, "status", resp.Status)
	return strconv.Itoa(resp.ID), nil
}

var _ Refunder = (*MercadoPagoGateway)(nil)
