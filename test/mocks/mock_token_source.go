package mocks

import (
	"context"
	"sync"
)

// MockTokenSource is a mock implementation of ports.TokenSource for testing
type MockTokenSource struct {
	mu    sync.Mutex
	Token string
	Err   error
	Calls int
}

// NewMockTokenSource creates a token source that always returns token
func NewMockTokenSource(token string) *MockTokenSource {
	return &MockTokenSource{Token: token}
}

// AccessToken returns the configured token or error and counts the call
func (m *MockTokenSource) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Token, nil
}
