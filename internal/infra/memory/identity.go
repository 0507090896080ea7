package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/fazenda-socios/portal-bfa-go/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	id           string
	email        string
	passwordHash []byte
	metadata     map[string]any
}

// Identities implements port.IdentityProvider with bcrypt-hashed passwords.
type Identities struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	sessions map[string]string // provider token -> account id
	cost     int
}

// NewIdentities returns an empty identity provider.
func NewIdentities() *Identities {
	return &Identities{
		byEmail:  map[string]*account{},
		sessions: map[string]string{},
		cost:     bcrypt.DefaultCost,
	}
}

// WithMinCost lowers the bcrypt cost; tests use it to stay fast.
func (m *Identities) WithMinCost() *Identities {
	m.cost = bcrypt.MinCost
	return m
}

func (m *Identities) SignUp(_ context.Context, email, password string, metadata map[string]any) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "Password should be at least 6 characters"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[email]; exists {
		return nil, &domain.ErrValidation{Field: "email", Message: "User already registered"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, err
	}
	acc := &account{id: uuid.NewString(), email: email, passwordHash: hash, metadata: metadata}
	m.byEmail[email] = acc
	return &domain.Identity{ID: acc.id, Email: acc.email}, nil
}

func (m *Identities) SignIn(_ context.Context, email, password string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.byEmail[email]
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return nil, &domain.ErrUnauthorized{Message: "Invalid login credentials"}
	}
	token := uuid.NewString()
	m.sessions[token] = acc.id
	return &domain.Identity{ID: acc.id, Email: acc.email, ProviderToken: token}, nil
}

func (m *Identities) SignOut(_ context.Context, providerToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, providerToken)
	return nil
}

func (m *Identities) GetIdentity(_ context.Context, providerToken string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.sessions[providerToken]
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "invalid JWT"}
	}
	for _, acc := range m.byEmail {
		if acc.id == id {
			return &domain.Identity{ID: acc.id, Email: acc.email, ProviderToken: providerToken}, nil
		}
	}
	return nil, &domain.ErrUnauthorized{Message: "user not found"}
}

// ActiveSessions is the number of provider sessions not signed out.
func (m *Identities) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
