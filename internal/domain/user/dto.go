package user

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	User      *User  `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
	IsStaff  *bool  `json:"is_staff"`
	IsAdmin  bool   `json:"is_admin"`
}

// StaffOption is what lead forms show in the owner picker.
type StaffOption struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
