package models

// User mirrors the users table.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}
