package services

import (
	"driverless-backend/internal/models"
	"driverless-backend/pkg/jwt"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionService puts token based sessions on top of the control unit's
// single active user. A token is only honored while its user is still the
// active one and no newer login has happened.
type SessionService struct {
	unit    *ControlUnit
	jwtUtil *jwt.JWTUtil

	mu        sync.RWMutex
	sessionID string
}

func NewSessionService(unit *ControlUnit, jwtUtil *jwt.JWTUtil) *SessionService {
	return &SessionService{
		unit:    unit,
		jwtUtil: jwtUtil,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
}

type LoginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates the username with the control unit and mints a token
// for the new session. A failed login is fatal to the caller's session.
// Concurrent logins are serialized so the recorded session always belongs
// to the active user.
func (s *SessionService) Login(req *LoginRequest) (*LoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.unit.Authenticate(req.Username)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	token, err := s.jwtUtil.GenerateToken(user.Username, user.Role(), sessionID)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	s.sessionID = sessionID

	return &LoginResponse{
		User:  user,
		Token: token,
	}, nil
}

func (s *SessionService) ValidateToken(tokenString string) (*jwt.Claims, error) {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkSession(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkSession requires s.mu.
func (s *SessionService) checkSession(claims *jwt.Claims) error {
	active, ok := s.unit.ActiveUser()
	if !ok || active != claims.Username {
		return fmt.Errorf("%w: session of %q is no longer active", ErrUnauthorized, claims.Username)
	}
	if claims.SessionID != s.sessionID {
		return fmt.Errorf("%w: session has been replaced", ErrUnauthorized)
	}
	return nil
}

// Refresh reissues a token close to expiry for the same session. It is only
// honored while that session is still the current one.
func (s *SessionService) Refresh(tokenString string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err := s.checkSession(claims); err != nil {
		return "", err
	}

	token, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return token, nil
}

func (s *SessionService) Logout(claims *jwt.Claims) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unit.Logout(claims.Username); err != nil {
		return err
	}
	if s.sessionID == claims.SessionID {
		s.sessionID = ""
	}
	return nil
}
