package currency

// Currency is a payment currency the store accepts.
type Currency struct {
	ISO       string  `json:"iso"`
	Rate      float64 `json:"rate"` // conversion rate from the primary currency
	IsPrimary bool    `json:"is_primary"`
}
