package models

// User represents the authenticated account as served by the profile
// endpoint. The profile response is the source of truth for identity; the
// user object embedded in the login response is never cached directly.
type User struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Role        string `json:"role"`
	IsStaff     bool   `json:"is_staff"`
}
