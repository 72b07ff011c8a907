package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"stellar-swap/pkg/types"
)

// Manager keeps the ordered set of wallets the user can pick from
type Manager struct {
	mu      sync.RWMutex
	wallets []Wallet
	byID    map[string]Wallet
}

// NewManager creates a new wallet manager
func NewManager(wallets ...Wallet) *Manager {
	m := &Manager{
		byID: make(map[string]Wallet),
	}
	for _, w := range wallets {
		_ = m.Register(w)
	}
	return m
}

// Register adds a wallet; ids must be unique
func (m *Manager) Register(w Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := strings.ToLower(w.ID())
	if _, exists := m.byID[id]; exists {
		return fmt.Errorf("wallet already registered: %s", id)
	}
	m.byID[id] = w
	m.wallets = append(m.wallets, w)
	return nil
}

// List returns the wallets in registration order
func (m *Manager) List() []Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Wallet, len(m.wallets))
	copy(out, m.wallets)
	return out
}

// Get looks up a wallet by id
func (m *Manager) Get(id string) (Wallet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.byID[strings.ToLower(id)]
	return w, ok
}

// Default returns the first available wallet
func (m *Manager) Default(ctx context.Context) (Wallet, bool) {
	for _, w := range m.List() {
		if w.IsAvailable(ctx) {
			return w, true
		}
	}
	return nil, false
}

// Connect asks the chosen wallet for access and returns the granted address
func (m *Manager) Connect(ctx context.Context, id string) (string, error) {
	w, ok := m.Get(id)
	if !ok {
		return "", types.Errorf(types.WalletUnavailable, "unknown wallet: %s", id)
	}
	if !w.IsAvailable(ctx) {
		return "", types.Errorf(types.WalletUnavailable,
			"%s is not installed. Please install it from %s", w.Name(), w.URL())
	}

	address, err := w.GetAddress(ctx)
	if err != nil {
		return "", err
	}
	return address, nil
}
