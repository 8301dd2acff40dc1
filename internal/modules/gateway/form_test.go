package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPopulateReadsKnownKeys(t *testing.T) {
	f := &PaymentForm{GatewayID: "card"}
	f.Populate(map[string]string{
		"number":   "4242424242424242",
		"holder":   "A Buyer",
		"expMonth": "12",
		"expYear":  "2030",
		"cvv":      "123",
		"token":    "tok_1",
		"bogus":    "ignored",
	})

	assert.Equal(t, "4242424242424242", f.CardNumber)
	assert.Equal(t, "A Buyer", f.Holder)
	assert.Equal(t, "12", f.ExpMonth)
	assert.Equal(t, "2030", f.ExpYear)
	assert.Equal(t, "123", f.CVV)
	assert.Equal(t, "tok_1", f.Token)
}

func TestValidateFullCard(t *testing.T) {
	f := &PaymentForm{
		CardNumber: "4242424242424242",
		ExpMonth:   "12",
		ExpYear:    "2030",
		CVV:        "123",
	}
	assert.True(t, f.Validate())
	assert.False(t, f.HasErrors())
}

func TestValidateMissingCardFields(t *testing.T) {
	f := &PaymentForm{CardNumber: "4242424242424242"}
	assert.False(t, f.Validate())
	errs := f.FieldErrors()
	assert.Contains(t, errs, "expiry")
	assert.Contains(t, errs, "cvv")
	assert.NotContains(t, errs, "number")
}

func TestValidateTokenSupersedesCardFields(t *testing.T) {
	f := &PaymentForm{Token: "tok_1"}
	assert.True(t, f.Validate())

	f = &PaymentForm{SourceToken: "src_1"}
	assert.True(t, f.Validate())
}
