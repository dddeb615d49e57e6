package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Checkout.Currency)
	assert.False(t, cfg.Checkout.StrictTransitions)
	assert.Equal(t, 24*time.Hour, cfg.Checkout.GuestCartTTL)
	assert.True(t, cfg.Checkout.DefaultTaxRate.IsZero())
	assert.Equal(t, []string{"card", "paypal", "cod"}, cfg.Checkout.PaymentMethods)
}

func TestLoad_CheckoutOverrides(t *testing.T) {
	t.Setenv("CHECKOUT_CURRENCY", "eur")
	t.Setenv("CHECKOUT_DEFAULT_TAX_RATE", "7.5")
	t.Setenv("CHECKOUT_TAX_RATES", "US:8.25, ca:5")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Checkout.Currency)
	assert.True(t, cfg.Checkout.StrictTransitions)
	assert.True(t, cfg.Checkout.TaxRateFor("us").Equal(decimal.RequireFromString("8.25")))
	assert.True(t, cfg.Checkout.TaxRateFor("CA").Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.Checkout.TaxRateFor("DE").Equal(decimal.RequireFromString("7.5")))
}

func TestLoad_RejectsMalformedTaxRates(t *testing.T) {
	t.Setenv("CHECKOUT_TAX_RATES", "US=8")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "shop", SSLMode: "disable",
	}}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", cfg.GetDatabaseDSN())
}
