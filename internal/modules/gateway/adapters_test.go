package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardGatewayCharge(t *testing.T) {
	gw := NewCardGateway("card", "key", "secret", "sandbox", true)
	form := gw.NewPaymentForm()
	form.Populate(map[string]string{"token": "tok_1"})

	res, err := gw.Charge(context.Background(), &ChargeRequest{
		OrderNumber: "abc123",
		Amount:      49.99,
		Currency:    "USD",
	}, form)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.RedirectURL)
	assert.NotEmpty(t, res.ProviderRef)
}

func TestCardGatewayChargeRejectsEmptyForm(t *testing.T) {
	gw := NewCardGateway("card", "key", "secret", "sandbox", true)

	_, err := gw.Charge(context.Background(), &ChargeRequest{Amount: 49.99}, gw.NewPaymentForm())
	assert.Error(t, err)

	_, err = gw.Charge(context.Background(), &ChargeRequest{Amount: 0}, &PaymentForm{Token: "tok_1"})
	assert.Error(t, err)
}

func TestCardGatewayCompleteNotSupported(t *testing.T) {
	gw := NewCardGateway("card", "key", "secret", "sandbox", true)
	_, err := gw.CompletePayment(context.Background(), &CompleteRequest{})
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestCardGatewaySourceToken(t *testing.T) {
	gw := NewCardGateway("card", "key", "secret", "sandbox", true)
	require.True(t, gw.SupportsPaymentSources())

	token, description, err := gw.CreateSourceToken(context.Background(), &PaymentForm{CardNumber: "4242424242424242"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "card ending in 4242", description)

	_, _, err = gw.CreateSourceToken(context.Background(), &PaymentForm{})
	assert.Error(t, err)
}

func TestHostedPageGatewayRedirect(t *testing.T) {
	gw := NewHostedPageGateway("hosted", "merchant-1", "secret",
		"https://pay.example.com", "https://shop.example.com/api/v1/checkout/pay/complete", true)
	require.False(t, gw.SupportsPaymentSources())

	res, err := gw.Charge(context.Background(), &ChargeRequest{
		Amount:          49.99,
		Currency:        "USD",
		TransactionRef:  "REF-1",
		TransactionHash: "deadbeef",
	}, gw.NewPaymentForm())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.RedirectURL, "https://pay.example.com/session/REF-1")
	// The provider must hand the hash back on completion.
	assert.Contains(t, res.RedirectURL, "commerceTransactionHash%3Ddeadbeef")
}

func TestHostedPageGatewayNoStoredSources(t *testing.T) {
	gw := NewHostedPageGateway("hosted", "merchant-1", "secret", "https://pay.example.com", "https://shop.example.com/complete", true)

	err := gw.PopulateFromSource(&PaymentForm{}, "src_1")
	assert.ErrorIs(t, err, ErrNotSupported)

	_, _, err = gw.CreateSourceToken(context.Background(), &PaymentForm{})
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestRegistryByID(t *testing.T) {
	card := NewCardGateway("card", "key", "secret", "sandbox", true)
	reg := Registry{"card": card}

	gw, err := reg.ByID("card")
	require.NoError(t, err)
	assert.Equal(t, "card", gw.ID())

	_, err = reg.ByID("bogus")
	assert.ErrorIs(t, err, ErrNotFound)
}
