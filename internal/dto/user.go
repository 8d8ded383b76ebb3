package dto

import "github.com/noah-isme/reschedule-api/internal/models"

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN COORDINATOR LEADER REPRESENTATIVE"`
	Active   *bool           `json:"active"`
	Password string          `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest changes only the fields that are present.
type UpdateUserRequest struct {
	Email    *string          `json:"email" validate:"omitempty,email"`
	FullName *string          `json:"full_name" validate:"omitempty,min=1"`
	Role     *models.UserRole `json:"role" validate:"omitempty,oneof=ADMIN COORDINATOR LEADER REPRESENTATIVE"`
	Active   *bool            `json:"active"`
	Password *string          `json:"password" validate:"omitempty,min=6"`
}
