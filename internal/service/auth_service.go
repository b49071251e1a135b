package service

import (
	"errors"
	"time"

	"github.com/parisxmas/vacancyform/internal/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService logs in the single configured admin and issues document links.
type AuthService struct {
	username     string
	passwordHash string
	jwtSecret    string
	sessionTTL   time.Duration
	linkTTL      time.Duration
}

// NewAuthService takes the admin's bcrypt hash. An empty hash disables login.
func NewAuthService(username, passwordHash, jwtSecret string, sessionTTL, linkTTL time.Duration) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		sessionTTL:   sessionTTL,
		linkTTL:      linkTTL,
	}
}

type AuthResult struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
}

func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	if s.passwordHash == "" || username != s.username {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateAdminToken(s.jwtSecret, username, s.sessionTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		Username:  username,
		ExpiresAt: time.Now().Add(s.sessionTTL).UTC().Format(time.RFC3339),
	}, nil
}

// DownloadToken signs a link for one stored document.
func (s *AuthService) DownloadToken(key string) (string, error) {
	return auth.GenerateDownloadToken(s.jwtSecret, key, s.linkTTL)
}

func (s *AuthService) Secret() string { return s.jwtSecret }
