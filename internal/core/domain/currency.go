package domain

// Currency represents a supported currency in the domain.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "JPY")
	Symbol       string `json:"symbol"`       // e.g., "¥"
	Name         string `json:"name"`         // e.g., "Japanese Yen"
	Exponent     int32  `json:"exponent"`     // Minor-unit digits: 0 for JPY, 2 for USD
	AuditFields
}
