package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
)

// Storage keys. Values are JSON encoded.
const (
	KeyToken = "sms_token"
	KeyUser  = "sms_user"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Role is a portal user role.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleFaculty   Role = "FACULTY"
	RoleStudent   Role = "STUDENT"
	RoleLibrarian Role = "LIBRARIAN"
)

var roleLabels = map[Role]string{
	RoleAdmin:     "Administrator",
	RoleFaculty:   "Faculty",
	RoleStudent:   "Student",
	RoleLibrarian: "Librarian",
}

// Label returns the display name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// User is the signed-in user as persisted with the session.
type User struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Role               Role   `json:"role"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session holds the bearer token and current user. It is created from
// storage with Init, replaced on login with Start and emptied with Clear,
// either on logout or when the backend answers 401.
type Session struct {
	mu    sync.RWMutex
	store Storage
	log   logr.Logger
	now   func() time.Time

	token string
	user  *User
}

// New returns an empty session backed by store.
func New(store Storage, log logr.Logger) *Session {
	return &Session{store: store, log: log, now: time.Now}
}

// Init restores token and user from storage. An expired or undecodable token
// clears both keys.
func (s *Session) Init() error {
	rawToken, okToken, err := s.store.Get(KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawUser, okUser, err := s.store.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if !okToken || !okUser {
		return nil
	}

	var token string
	var user User
	if err := json.Unmarshal([]byte(rawToken), &token); err != nil {
		s.log.Error(err, "stored token is not valid JSON")
		return s.Clear()
	}
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.Error(err, "stored user is not valid JSON")
		return s.Clear()
	}

	exp, err := TokenExpiry(token)
	if err != nil || !exp.After(s.now()) {
		s.log.Info("token expired, clearing session", "level", "warn")
		return s.Clear()
	}

	s.mu.Lock()
	s.token, s.user = token, &user
	s.mu.Unlock()
	s.log.Info("auth restored from storage", "email", user.Email)
	return nil
}

// Start persists a freshly issued token and user.
func (s *Session) Start(token string, user User) error {
	rawToken, err := json.Marshal(token)
	if err != nil {
		return err
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(KeyToken, string(rawToken)); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.store.Set(KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	s.mu.Lock()
	s.token, s.user = token, &user
	s.mu.Unlock()
	return nil
}

// Clear drops token and user from memory and storage.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()

	errToken := s.store.Remove(KeyToken)
	errUser := s.store.Remove(KeyUser)
	if errToken != nil {
		return fmt.Errorf("remove token: %w", errToken)
	}
	if errUser != nil {
		return fmt.Errorf("remove user: %w", errUser)
	}
	return nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when signed out.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasRole reports whether the current user holds any of roles.
func (s *Session) HasRole(roles ...Role) bool {
	u := s.User()
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Claims is the subset of the backend JWT the client reads.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the token payload without verifying the signature;
// the client has no key and only reads what the backend put there.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim of token.
func TokenExpiry(token string) (time.Time, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
