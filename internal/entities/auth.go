package entities

type OTPStartRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type OTPCheckRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,numeric,min=4,max=8"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    int    `json:"id"`
	Phone string `json:"phone"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}
