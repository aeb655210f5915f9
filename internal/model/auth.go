package model

import "github.com/golang-jwt/jwt/v5"

// TeacherClaims are JWT claims for teacher authentication
type TeacherClaims struct {
	TeacherID string `json:"teacherId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for teacher login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string `json:"token"`
	TeacherID string `json:"teacherId"`
}
