// AngelaMos | 2026
// dto.go

package auth

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterResponse struct {
	ProfileID   string `json:"profile_id"`
	AccessToken string `json:"access_token"`
	Message     string `json:"message,omitempty"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}
