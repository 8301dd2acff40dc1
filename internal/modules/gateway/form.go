package gateway

// PaymentForm captures gateway-specific payment input for one request. It is
// never persisted; stored instruments go through payment sources instead.
type PaymentForm struct {
	GatewayID string

	// Card details, for gateways that take raw card input.
	CardNumber string
	Holder     string
	ExpMonth   string
	ExpYear    string
	CVV        string

	// Token is a one-time token from a client-side tokenizer.
	Token string

	// SourceToken references a stored payment instrument and supersedes the
	// raw fields when set.
	SourceToken string

	errs map[string][]string
}

// Populate fills the form from raw request parameters. Unknown keys are
// ignored so gateway-specific handlers can share one request shape.
func (f *PaymentForm) Populate(params map[string]string) {
	if v := params["number"]; v != "" {
		f.CardNumber = v
	}
	if v := params["holder"]; v != "" {
		f.Holder = v
	}
	if v := params["expMonth"]; v != "" {
		f.ExpMonth = v
	}
	if v := params["expYear"]; v != "" {
		f.ExpYear = v
	}
	if v := params["cvv"]; v != "" {
		f.CVV = v
	}
	if v := params["token"]; v != "" {
		f.Token = v
	}
}

// AddError records a field-level validation error on the form.
func (f *PaymentForm) AddError(field, message string) {
	if f.errs == nil {
		f.errs = map[string][]string{}
	}
	f.errs[field] = append(f.errs[field], message)
}

// HasErrors reports whether any field-level error has been recorded.
func (f *PaymentForm) HasErrors() bool { return len(f.errs) > 0 }

// FieldErrors returns the recorded field-level errors keyed by field name.
func (f *PaymentForm) FieldErrors() map[string][]string { return f.errs }

// Validate checks the form holds a usable payment instrument: a stored
// source, a token, or a full set of card fields.
func (f *PaymentForm) Validate() bool {
	if f.SourceToken != "" || f.Token != "" {
		return !f.HasErrors()
	}
	if f.CardNumber == "" {
		f.AddError("number", "card number is required")
	}
	if f.ExpMonth == "" || f.ExpYear == "" {
		f.AddError("expiry", "card expiry is required")
	}
	if f.CVV == "" {
		f.AddError("cvv", "security code is required")
	}
	return !f.HasErrors()
}
