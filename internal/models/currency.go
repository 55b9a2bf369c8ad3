package models

// Currency mirrors the currencies table.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "JPY")
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Exponent     int32  `json:"exponent"`
	AuditFields
}
