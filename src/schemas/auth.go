package schemas

import "laundry-client/src/models"

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair carries the access/refresh tokens issued on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse is the envelope returned by POST /api/login/. Status false
// with a message means the server rejected the credentials even though the
// HTTP status was 2xx.
type LoginResponse struct {
	Status  *bool  `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Tokens TokenPair   `json:"tokens"`
		User   models.User `json:"user"`
	} `json:"data"`
}

// Rejected reports whether the payload carries an explicit failure flag.
func (r *LoginResponse) Rejected() bool {
	return r.Status != nil && !*r.Status
}

// RefreshRequest is the body of POST /api/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is the body returned by POST /api/token/refresh/.
type RefreshResponse struct {
	Access string `json:"access"`
}

// RegisterRequest is the new-account payload for POST /api/users/.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
}

// ProfileResponse is the envelope returned by GET /api/profile/.
type ProfileResponse struct {
	Data models.User `json:"data"`
}
