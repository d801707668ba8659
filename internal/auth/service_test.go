package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Username]; ok {
		return ErrUserExists
	}
	clone := *u
	f.users[u.Username] = &clone
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func newTestAuthService() (*Service, *fakeUserRepo, *MemorySessionStore) {
	repo := newFakeUserRepo()
	sessions := NewMemorySessionStore()
	svc := NewService(repo, sessions, time.Hour, "drhouse", "lupus", nil)
	return svc, repo, sessions
}

func TestSignupCreatesSession(t *testing.T) {
	svc, repo, sessions := newTestAuthService()

	session, err := svc.Signup(context.Background(), "alice", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, RolePatient, session.Role)

	got, err := sessions.Get(context.Background(), session.Token)
	require.NoError(t, err)
	require.NotNil(t, got)

	stored := repo.users["alice"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter2")))
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, repo, _ := newTestAuthService()
	_, err := svc.Signup(context.Background(), "alice", "first")
	require.NoError(t, err)
	originalHash := repo.users["alice"].PasswordHash

	_, err = svc.Signup(context.Background(), "alice", "second")

	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, originalHash, repo.users["alice"].PasswordHash)
}

func TestSignupMissingFields(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Signup(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = svc.Signup(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoginSuccess(t *testing.T) {
	svc, _, _ := newTestAuthService()
	_, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "alice", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, RolePatient, session.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	_, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	before := len(sessions.sessions)

	_, err = svc.Login(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, before, len(sessions.sessions), "failed login must not create a session")
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), "nobody", "pw")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDoctorLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()

	session, err := svc.DoctorLogin(context.Background(), "drhouse", "lupus")

	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, session.Role)
}

func TestDoctorLoginWrongCredential(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.DoctorLogin(context.Background(), "drhouse", "not-lupus")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.DoctorLogin(context.Background(), "intruder", "lupus")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDoctorLoginDisabledWithoutCredential(t *testing.T) {
	svc := NewService(newFakeUserRepo(), NewMemorySessionStore(), time.Hour, "", "", nil)

	_, err := svc.DoctorLogin(context.Background(), "drhouse", "lupus")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	session, err := svc.Signup(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))

	got, err := sessions.Get(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStartAnonymous(t *testing.T) {
	svc, _, _ := newTestAuthService()

	session, err := svc.StartAnonymous(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", session.Username)
	assert.Equal(t, RolePatient, session.Role)
	assert.NotEmpty(t, session.Token)
}
