package service

import (
	"errors"
	"os"
	"sahayak/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles teacher authentication
type AuthService struct {
	teacherUsername string
	teacherPassword string
	jwtSecret       []byte
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	username := os.Getenv("TEACHER_USERNAME")
	if username == "" {
		username = "teacher"
	}
	password := os.Getenv("TEACHER_PASSWORD")
	if password == "" {
		password = "password123"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super-secret-key-change-in-production"
	}

	return &AuthService{
		teacherUsername: username,
		teacherPassword: password,
		jwtSecret:       []byte(secret),
	}
}

// Login validates credentials and returns a session token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.teacherUsername || password != s.teacherPassword {
		return nil, ErrInvalidCredentials
	}

	teacherID := "teacher_" + uuid.New().String()[:8]

	claims := &model.TeacherClaims{
		TeacherID: teacherID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		TeacherID: teacherID,
	}, nil
}

// ValidateToken validates a teacher JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.TeacherClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.TeacherClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.TeacherClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
