package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"triage-assistant/internal/logging"
)

var (
	// ErrInvalidCredentials is returned on any login mismatch. The reason is
	// deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// Service implements signup, login and logout for the patient role and the
// fixed-credential doctor login. Every successful call yields a session with
// an explicit role tag.
type Service struct {
	users    UserRepository
	sessions SessionStore
	ttl      time.Duration

	doctorUsername string
	doctorPassword string

	logger *logging.Logger
}

func NewService(users UserRepository, sessions SessionStore, ttl time.Duration,
	doctorUsername, doctorPassword string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		users:          users,
		sessions:       sessions,
		ttl:            ttl,
		doctorUsername: doctorUsername,
		doctorPassword: doctorPassword,
		logger:         logger,
	}
}

// Signup registers a new patient and logs them in. A taken username fails
// with ErrUserExists and leaves the existing record untouched.
func (s *Service) Signup(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{Username: username, PasswordHash: string(hash), Role: RolePatient}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("patient signed up", "username", username)
	return s.startSession(ctx, username, RolePatient)
}

// Login authenticates a patient. No session is created on failure.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, username, user.Role)
}

// DoctorLogin checks the fixed staff credential from configuration. When no
// doctor credential is configured the endpoint is effectively disabled.
func (s *Service) DoctorLogin(ctx context.Context, username, password string) (*Session, error) {
	if s.doctorUsername == "" || s.doctorPassword == "" {
		s.logger.Warn("doctor login attempted but no doctor credential is configured")
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.doctorUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.doctorPassword)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, username, RoleDoctor)
}

// StartAnonymous issues a patient-role session with no identity, used for
// public intake so every browser gets an isolated conversation.
func (s *Service) StartAnonymous(ctx context.Context) (*Session, error) {
	return s.startSession(ctx, "", RolePatient)
}

// Logout invalidates the session immediately.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Service) startSession(ctx context.Context, username, role string) (*Session, error) {
	session := Session{
		Token:     uuid.NewString(),
		Username:  username,
		Role:      role,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}
