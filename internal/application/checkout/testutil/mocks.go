// Package testutil provides mock implementations for testing the checkout application layer.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/FlexpointLLC/sellium-sub001/internal/application/checkout/gateway"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/order"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/payment"
	paymentvo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/domain/store"
	apperrors "github.com/FlexpointLLC/sellium-sub001/internal/shared/errors"
)

// MockOrderRepository is a mock implementation of order.Repository for testing.
type MockOrderRepository struct {
	mu        sync.RWMutex
	orders    map[uint]*order.Order
	byOrderNo map[string]*order.Order

	getError    error
	updateError error
	UpdateCalls int
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:    make(map[uint]*order.Order),
		byOrderNo: make(map[string]*order.Order),
	}
}

func (m *MockOrderRepository) Add(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID()] = o
	m.byOrderNo[orderKey(o.StoreID(), o.OrderNo())] = o
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}
	return m.orders[id], nil
}

func (m *MockOrderRepository) GetByOrderNo(ctx context.Context, storeID uint, orderNo string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}
	return m.byOrderNo[orderKey(storeID, orderNo)], nil
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.updateError != nil {
		return m.updateError
	}
	m.orders[o.ID()] = o
	m.byOrderNo[orderKey(o.StoreID(), o.OrderNo())] = o
	return nil
}

func (m *MockOrderRepository) SetGetError(err error)    { m.getError = err }
func (m *MockOrderRepository) SetUpdateError(err error) { m.updateError = err }

func orderKey(storeID uint, orderNo string) string {
	return fmt.Sprintf("%d/%s", storeID, orderNo)
}

// MockSessionRepository is a mock implementation of payment.SessionRepository.
type MockSessionRepository struct {
	mu         sync.RWMutex
	sessions   map[uint]*payment.Session
	byProvider map[string]*payment.Session
	nextID     uint

	createError error
	updateError error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions:   make(map[uint]*payment.Session),
		byProvider: make(map[string]*payment.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, s *payment.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	if s.ID() == 0 {
		m.nextID++
		s.SetID(m.nextID)
	}
	m.index(s)
	return nil
}

func (m *MockSessionRepository) Update(ctx context.Context, s *payment.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return m.updateError
	}
	m.index(s)
	return nil
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*payment.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

func (m *MockSessionRepository) GetByProviderSessionID(ctx context.Context, providerSessionID string) (*payment.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byProvider[providerSessionID], nil
}

func (m *MockSessionRepository) GetSettledByOrderID(ctx context.Context, orderID uint) (*payment.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.OrderID() == orderID && s.Status() == paymentvo.SessionStatusSettled {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockSessionRepository) SetCreateError(err error) { m.createError = err }
func (m *MockSessionRepository) SetUpdateError(err error) { m.updateError = err }

func (m *MockSessionRepository) index(s *payment.Session) {
	m.sessions[s.ID()] = s
	if pid := s.ProviderSessionID(); pid != nil {
		m.byProvider[*pid] = s
	}
}

// MockCredentialLookup returns a fixed gateway config per store.
type MockCredentialLookup struct {
	mu      sync.RWMutex
	configs map[uint]*store.GatewayConfig

	lookupError error
}

func NewMockCredentialLookup() *MockCredentialLookup {
	return &MockCredentialLookup{configs: make(map[uint]*store.GatewayConfig)}
}

func (m *MockCredentialLookup) SetConfig(storeID uint, cfg *store.GatewayConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[storeID] = cfg
}

func (m *MockCredentialLookup) SetLookupError(err error) { m.lookupError = err }

func (m *MockCredentialLookup) GatewayConfig(ctx context.Context, storeID uint, gw paymentvo.Gateway) (*store.GatewayConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lookupError != nil {
		return nil, m.lookupError
	}
	cfg, ok := m.configs[storeID]
	if !ok || cfg.Gateway != gw {
		return nil, apperrors.NewConfigurationError("gateway not configured for store")
	}
	return cfg, nil
}

// MockGateway is a scripted gateway adapter that records its calls.
type MockGateway struct {
	mu sync.Mutex

	CreateResponse *gateway.CreatePaymentResponse
	CreateError    error
	ConfirmResult  *gateway.ConfirmResult
	ConfirmError   error

	CreateCalls  int
	ConfirmCalls int
}

func (m *MockGateway) CreatePayment(ctx context.Context, cfg *store.GatewayConfig, req gateway.CreatePaymentRequest) (*gateway.CreatePaymentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	return m.CreateResponse, nil
}

func (m *MockGateway) ConfirmPayment(ctx context.Context, cfg *store.GatewayConfig, providerSessionID string) (*gateway.ConfirmResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfirmCalls++
	if m.ConfirmError != nil {
		return nil, m.ConfirmError
	}
	return m.ConfirmResult, nil
}

// MockCartStore records cart clears.
type MockCartStore struct {
	mu         sync.Mutex
	ClearCalls int
	clearError error
}

func (m *MockCartStore) Clear(ctx context.Context, storeID uint, orderNo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls++
	return m.clearError
}

func (m *MockCartStore) SetClearError(err error) { m.clearError = err }
