package domain

// UserRole defines the marketplace roles.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleOrganizer UserRole = "ORGANIZER"
	RoleNurse     UserRole = "NURSE"
)

// User represents an authenticated account. The payment core only consults
// the role; profile data lives with the web application.
type User struct {
	UserID       string   `json:"userID"` // Primary Key (UUID)
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	IsActive     bool     `json:"isActive"`
	AuditFields
}
