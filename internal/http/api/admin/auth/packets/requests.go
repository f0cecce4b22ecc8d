package packets

import "strings"

// REQUESTS FOR /api/admin/auth/*
// Emails are matched case-insensitively; use NormalizedEmail before lookups.

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

func (r SignupRequest) NormalizedEmail() string { return normalizeEmail(r.Email) }

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) NormalizedEmail() string { return normalizeEmail(r.Email) }

type UpdateCurrentProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

func (r UpdateCurrentProfileRequest) NormalizedEmail() string { return normalizeEmail(r.Email) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
