package payment

import (
	"fmt"
	"time"

	vo "github.com/FlexpointLLC/sellium-sub001/internal/domain/payment/valueobjects"
	sharedVO "github.com/FlexpointLLC/sellium-sub001/internal/domain/shared/valueobjects"
	"github.com/FlexpointLLC/sellium-sub001/internal/shared/biztime"
)

// Session represents one attempt to pay one order through one gateway.
// An order may accumulate sessions across retries, but at most one may
// ever reach settled.
type Session struct {
	id      uint
	orderID uint
	storeID uint
	gateway vo.Gateway
	amount  sharedVO.Money
	status  vo.SessionStatus

	// providerSessionID is the gateway's handle for this attempt:
	// bKash paymentID or Nagad paymentReferenceId.
	providerSessionID *string
	redirectURL       *string
	transactionID     *string
	failureReason     *string

	settledAt *time.Time
	createdAt time.Time
	updatedAt time.Time
}

func NewSession(orderID, storeID uint, gateway vo.Gateway, amount sharedVO.Money) (*Session, error) {
	if orderID == 0 {
		return nil, fmt.Errorf("order ID is required")
	}
	if storeID == 0 {
		return nil, fmt.Errorf("store ID is required")
	}
	if !gateway.IsValid() {
		return nil, fmt.Errorf("invalid gateway: %s", gateway)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	now := biztime.NowUTC()
	return &Session{
		orderID:   orderID,
		storeID:   storeID,
		gateway:   gateway,
		amount:    amount,
		status:    vo.SessionStatusCreated,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// AttachProviderSession records the gateway's session handle and the
// customer redirect URL once the create call succeeds.
func (s *Session) AttachProviderSession(providerSessionID, redirectURL string) error {
	if s.status != vo.SessionStatusCreated {
		return fmt.Errorf("cannot attach provider session with status %s", s.status)
	}
	if providerSessionID == "" {
		return fmt.Errorf("provider session ID is required")
	}

	s.providerSessionID = &providerSessionID
	s.redirectURL = &redirectURL
	s.status = vo.SessionStatusInitialized
	s.updatedAt = biztime.NowUTC()

	return nil
}

// MarkSettled finalizes the session. Idempotent: settling an already
// settled session is a no-op.
func (s *Session) MarkSettled(transactionID string) error {
	if s.status == vo.SessionStatusSettled {
		return nil
	}
	if s.status != vo.SessionStatusInitialized {
		return fmt.Errorf("cannot settle session with status %s", s.status)
	}
	if transactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	now := biztime.NowUTC()
	s.status = vo.SessionStatusSettled
	s.transactionID = &transactionID
	s.settledAt = &now
	s.updatedAt = now

	return nil
}

func (s *Session) MarkFailed(reason string) error {
	if s.status.IsTerminal() {
		return fmt.Errorf("cannot fail session with terminal status %s", s.status)
	}

	s.status = vo.SessionStatusFailed
	s.failureReason = &reason
	s.updatedAt = biztime.NowUTC()

	return nil
}

func (s *Session) MarkCancelled() error {
	if s.status == vo.SessionStatusCancelled {
		return nil
	}
	if s.status.IsTerminal() {
		return fmt.Errorf("cannot cancel session with terminal status %s", s.status)
	}

	s.status = vo.SessionStatusCancelled
	s.updatedAt = biztime.NowUTC()

	return nil
}

func (s *Session) ID() uint {
	return s.id
}

func (s *Session) OrderID() uint {
	return s.orderID
}

func (s *Session) StoreID() uint {
	return s.storeID
}

func (s *Session) Gateway() vo.Gateway {
	return s.gateway
}

func (s *Session) Amount() sharedVO.Money {
	return s.amount
}

func (s *Session) Status() vo.SessionStatus {
	return s.status
}

func (s *Session) ProviderSessionID() *string {
	return s.providerSessionID
}

func (s *Session) RedirectURL() *string {
	return s.redirectURL
}

func (s *Session) TransactionID() *string {
	return s.transactionID
}

func (s *Session) FailureReason() *string {
	return s.failureReason
}

func (s *Session) SettledAt() *time.Time {
	return s.settledAt
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) UpdatedAt() time.Time {
	return s.updatedAt
}

// SetID sets the session ID after persistence (used by repository after Create)
func (s *Session) SetID(id uint) {
	s.id = id
}

// SessionReconstructParams carries persisted state for rebuilding a Session.
type SessionReconstructParams struct {
	ID                uint
	OrderID           uint
	StoreID           uint
	Gateway           vo.Gateway
	Amount            sharedVO.Money
	Status            vo.SessionStatus
	ProviderSessionID *string
	RedirectURL       *string
	TransactionID     *string
	FailureReason     *string
	SettledAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func ReconstructSession(p SessionReconstructParams) *Session {
	return &Session{
		id:                p.ID,
		orderID:           p.OrderID,
		storeID:           p.StoreID,
		gateway:           p.Gateway,
		amount:            p.Amount,
		status:            p.Status,
		providerSessionID: p.ProviderSessionID,
		redirectURL:       p.RedirectURL,
		transactionID:     p.TransactionID,
		failureReason:     p.FailureReason,
		settledAt:         p.SettledAt,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
}
