// Package oskeyring stores Vault tokens in the operating system's keyring so
// they do not have to live in the environment or in dotenv files.
package oskeyring

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	keyringlib "github.com/zalando/go-keyring"
)

// ServiceName is the keyring service all vaultenv entries are filed under.
const ServiceName = "vaultenv"

// ErrNotFound is returned by Get when the requested secret is not found.
var ErrNotFound = errors.New("secret not found in keyring")

// Service defines an interface for interacting with the operating system's keyring.
type Service interface {
	// Get returns ErrNotFound if the secret is not found.
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	// Delete should not return an error if the secret does not exist.
	Delete(service, user string) error
}

// TokenAccount is the keyring account holding the token for a Vault address.
// Tokens are scoped per address so switching clusters does not reuse a token.
func TokenAccount(addr string) string {
	return "token:" + strings.TrimRight(addr, "/")
}

// SaveToken stores token for addr.
func SaveToken(svc Service, addr, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}
	return svc.Set(ServiceName, TokenAccount(addr), token)
}

// LoadToken returns the token stored for addr or ErrNotFound.
func LoadToken(svc Service, addr string) (string, error) {
	token, err := svc.Get(ServiceName, TokenAccount(addr))
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// DeleteToken removes the token stored for addr.
func DeleteToken(svc Service, addr string) error {
	return svc.Delete(ServiceName, TokenAccount(addr))
}

// DefaultService uses the zalando/go-keyring library.
type DefaultService struct{}

func NewDefaultService() *DefaultService {
	return &DefaultService{}
}

func (s *DefaultService) Get(service, user string) (string, error) {
	secret, err := keyringlib.Get(service, user)
	if err != nil {
		if errors.Is(err, keyringlib.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get secret from OS keyring: %w", err)
	}
	return secret, nil
}

func (s *DefaultService) Set(service, user, password string) error {
	return keyringlib.Set(service, user, password)
}

func (s *DefaultService) Delete(service, user string) error {
	err := keyringlib.Delete(service, user)
	if errors.Is(err, keyringlib.ErrNotFound) {
		return nil
	}
	return err
}

var _ Service = (*DefaultService)(nil)

// MemoryService is an in-memory implementation of the Service interface for testing.
type MemoryService struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> user -> secret
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		store: make(map[string]map[string]string),
	}
}

func (s *MemoryService) Get(service, user string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if users, ok := s.store[service]; ok {
		if secret, ok := users[user]; ok {
			return secret, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryService) Set(service, user, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store[service]; !ok {
		s.store[service] = make(map[string]string)
	}
	s.store[service][user] = password
	return nil
}

func (s *MemoryService) Delete(service, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if users, ok := s.store[service]; ok {
		delete(users, user)
		if len(users) == 0 {
			delete(s.store, service)
		}
	}
	return nil
}

var _ Service = (*MemoryService)(nil)
