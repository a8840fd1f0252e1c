package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockPresenter is a testify mock of ui.Presenter. Alerts and navigations
// are accepted without expectations and recorded; tests inspect them with
// Alerts and Routes or assert calls with AssertCalled.
type MockPresenter struct {
	mock.Mock

	mu     sync.Mutex
	alerts []string
	routes []string
}

// NewMockPresenter returns a presenter that accepts any call.
func NewMockPresenter() *MockPresenter {
	m := &MockPresenter{}
	m.On("Alert", mock.Anything).Maybe()
	m.On("Navigate", mock.Anything).Maybe()
	return m
}

// Alert records message.
func (m *MockPresenter) Alert(message string) {
	m.Called(message)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, message)
}

// Navigate records route.
func (m *MockPresenter) Navigate(route string) {
	m.Called(route)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route)
}

// Alerts returns every alert shown so far.
func (m *MockPresenter) Alerts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.alerts...)
}

// Routes returns every route navigated to so far.
func (m *MockPresenter) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.routes...)
}

// LastAlert returns the most recent alert or "".
func (m *MockPresenter) LastAlert() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.alerts) == 0 {
		return ""
	}
	return m.alerts[len(m.alerts)-1]
}
