package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
	"github.com/redmonkez12/finance-tracker-api/internal/user"
)

// memoryStore is a UserStore enforcing the same uniqueness rules as the users table
type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*user.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: make(map[int64]*user.User)}
}

func (m *memoryStore) Create(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Username == username || u.Email == email {
			return nil, user.ErrDuplicate
		}
	}
	m.nextID++
	u := &user.User{ID: m.nextID, Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	c := *u
	return &c, nil
}

func (m *memoryStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type ServiceTestSuite struct {
	suite.Suite
	store   *memoryStore
	tokens  *JWTService
	service *Service
	ctx     context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	hasher, err := NewPasswordHasher("bcrypt", bcrypt.MinCost)
	s.Require().NoError(err)
	s.tokens, err = NewJWTService(testKey)
	s.Require().NoError(err)

	s.store = newMemoryStore()
	s.service = NewService(s.store, hasher, s.tokens, 2*time.Hour, logging.NewNopLogger())
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) TestRegisterIssuesToken() {
	session, err := s.service.Register(s.ctx, "alice", "Alice@Example.com", "password123")
	s.Require().NoError(err)

	s.Equal("alice", session.User.Username)
	s.Equal("alice@example.com", session.User.Email)
	s.NotEqual("password123", session.User.PasswordHash)

	claims, err := s.tokens.VerifyToken(session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, claims.UserID)
	s.WithinDuration(time.Now().Add(2*time.Hour), session.ExpiresAt, 5*time.Second)
}

func (s *ServiceTestSuite) TestRegisterValidation() {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     *apperr.Error
	}{
		{"missing username", "", "a@example.com", "password123", ErrUsernameRequired},
		{"short username", "ab", "a@example.com", "password123", ErrInvalidUsername},
		{"username with space", "al ice", "a@example.com", "password123", ErrInvalidUsername},
		{"missing email", "alice", "", "password123", ErrEmailRequired},
		{"bad email", "alice", "not-an-email", "password123", ErrInvalidEmailFormat},
		{"display-name email", "alice", "Alice <a@example.com>", "password123", ErrInvalidEmailFormat},
		{"long email", "alice", strings.Repeat("a", 250) + "@example.com", "password123", ErrInvalidEmailFormat},
		{"missing password", "alice", "a@example.com", "", ErrPasswordRequired},
		{"short password", "alice", "a@example.com", "short", ErrPasswordTooShort},
		{"long password", "alice", "a@example.com", strings.Repeat("p", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Register(s.ctx, tt.username, tt.email, tt.password)
			s.ErrorIs(err, tt.want)
			s.Equal(apperr.KindValidation, apperr.KindOf(err))
		})
	}
	s.Equal(0, s.store.count())
}

func (s *ServiceTestSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "other@example.com", "password456")
	s.ErrorIs(err, user.ErrDuplicate)
	s.Equal(1, s.store.count())
}

func (s *ServiceTestSuite) TestLogin() {
	registered, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	session, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)
	s.Equal(registered.User.ID, session.User.ID)

	claims, err := s.tokens.VerifyToken(session.Token)
	s.Require().NoError(err)
	s.Equal("alice@example.com", claims.Email)
}

func (s *ServiceTestSuite) TestLoginFailuresLookAlike() {
	_, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	wrongPassword, err := s.service.Login(s.ctx, "alice", "password999")
	s.Nil(wrongPassword)
	s.ErrorIs(err, ErrInvalidCredentials)
	wrongMessage := err.Error()

	unknownUser, err := s.service.Login(s.ctx, "mallory", "password123")
	s.Nil(unknownUser)
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Equal(wrongMessage, err.Error())

	var appErr *apperr.Error
	s.Require().ErrorAs(err, &appErr)
	s.Equal(400, appErr.HTTPStatus())
}

func (s *ServiceTestSuite) TestLoginMissingFields() {
	_, err := s.service.Login(s.ctx, "", "password123")
	s.ErrorIs(err, ErrUsernameRequired)

	_, err = s.service.Login(s.ctx, "alice", "")
	s.ErrorIs(err, ErrPasswordRequired)
}

func (s *ServiceTestSuite) TestChangePassword() {
	registered, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)
	id := registered.User.ID

	s.ErrorIs(s.service.ChangePassword(s.ctx, id, "wrong-password", "newpassword1"), ErrInvalidCredentials)
	s.ErrorIs(s.service.ChangePassword(s.ctx, id, "password123", "short"), ErrPasswordTooShort)
	s.ErrorIs(s.service.ChangePassword(s.ctx, id, "", "newpassword1"), ErrPasswordRequired)

	s.Require().NoError(s.service.ChangePassword(s.ctx, id, "password123", "newpassword1"))

	_, err = s.service.Login(s.ctx, "alice", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.service.Login(s.ctx, "alice", "newpassword1")
	s.NoError(err)

	// tokens issued before the change are not revoked
	_, err = s.tokens.VerifyToken(registered.Token)
	s.NoError(err)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestConcurrentRegistrationSameUsername(t *testing.T) {
	hasher, err := NewPasswordHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := NewJWTService(testKey)
	require.NoError(t, err)
	store := newMemoryStore()
	svc := NewService(store, hasher, tokens, time.Hour, logging.NewNopLogger())

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "racer", "racer"+string(rune('a'+i))+"@example.com", "password123")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperr.KindOf(err) == apperr.KindConflict:
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, store.count())
}

// countingHasher records every hash it is asked to verify
type countingHasher struct {
	mu       sync.Mutex
	hashed   []string
	verified []string
}

func (c *countingHasher) Hash(password string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := "counted$" + password
	c.hashed = append(c.hashed, h)
	return h, nil
}

func (c *countingHasher) Verify(password, encodedHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified = append(c.verified, encodedHash)
	return encodedHash == "counted$"+password
}

func TestLoginUnknownUserVerifiesHasherOwnHash(t *testing.T) {
	hasher := &countingHasher{}
	tokens, err := NewJWTService(testKey)
	require.NoError(t, err)
	svc := NewService(newMemoryStore(), hasher, tokens, time.Hour, logging.NewNopLogger())

	_, err = svc.Login(context.Background(), "ghost", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.Len(t, hasher.hashed, 1)
	require.Len(t, hasher.verified, 1)
	assert.Equal(t, hasher.hashed[0], hasher.verified[0], "unknown users must pay for a real verification")
}
