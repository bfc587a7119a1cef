package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthStore interface {
	FindUserByUsername(username string) (*User, error)
}

type TokenSigner func(userID int64, isAdmin bool, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	signToken TokenSigner
	tokenTTL  time.Duration
}

type LoginResult struct {
	Token string
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		signToken: signer,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// Login verifies the credential pair and issues a signed token. Unknown
// username and wrong password fail with the same message so the response
// never reveals which input was wrong.
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewInvalidError("username/password required")
	}
	u, err := s.store.FindUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("incorrect username or password")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.IsAdmin, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token}, nil
}
