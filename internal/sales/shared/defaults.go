package shared

import "time"

// Defaults are the configurable document defaults.
type Defaults struct {
	Email             string
	Terms             []string
	QuotationValidity time.Duration
	// TrustClientTotal keeps a nonzero caller-supplied quotation total
	// instead of recomputing it.
	TrustClientTotal bool
}

// DefaultDocumentDefaults mirrors the configuration defaults.
func DefaultDocumentDefaults() Defaults {
	return Defaults{
		Email:             "duamedicalservice@gmail.com",
		Terms:             []string{"PAYMENT: 30% IN ADVANCE", "VALIDITY: 45 DAYS"},
		QuotationValidity: 45 * 24 * time.Hour,
	}
}
