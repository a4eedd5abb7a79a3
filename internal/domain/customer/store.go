package customer

import (
	"cmp"
	"context"
	"customer-manager/internal/event"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultRankingLimit = 5

const customerNotFound = "Customer not found in store"

// Store owns the in-memory customer collection keyed by normalized email.
// Every mutation rewrites the whole collection through the Repository; a
// failed save is logged and the in-memory change is kept.
type Store struct {
	mu        sync.RWMutex
	customers map[string]Account
	repo      Repository
	pub       event.EventPublisher
	logger    *slog.Logger
}

func NewStore(ctx context.Context, repo Repository, publisher event.EventPublisher, logger *slog.Logger) *Store {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewStore, using default stderr handler")
	}

	if publisher == nil {
		publisher = event.NoopPublisher{}
	}

	s := &Store{
		customers: make(map[string]Account),
		repo:      repo,
		pub:       publisher,
		logger:    logger.With(slog.String("component", "customerStore")),
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	s.logger.InfoContext(ctx, "Loading customers from repository")

	records, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load customers, starting with an empty store", slog.Any("error", err))
		return
	}

	for _, rec := range records {
		acc, err := rec.ToAccount()
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid customer record", slog.String("email", rec.Email), slog.Any("error", err))
			continue
		}
		if _, exists := s.customers[acc.Email()]; exists {
			s.logger.WarnContext(ctx, "Skipping duplicate customer record", slog.String("email", acc.Email()))
			continue
		}
		s.customers[acc.Email()] = acc
	}

	s.logger.InfoContext(ctx, "Customers loaded", slog.Int("count", len(s.customers)))
}

// persist must be called with the write lock held.
func (s *Store) persist(ctx context.Context) {
	records := make([]Record, 0, len(s.customers))
	for _, acc := range s.customers {
		records = append(records, NewRecord(acc))
	}
	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.Email, b.Email) })

	if err := s.repo.Save(ctx, records); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist customers, keeping in-memory state", slog.Any("error", err))
		return
	}
	s.logger.DebugContext(ctx, "Customers persisted", slog.Int("count", len(records)))
}

func (s *Store) publish(ctx context.Context, eventType event.EventType, acc Account, amount *decimal.Decimal) {
	evt := event.CustomerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Amount:    amount,
		Payload:   newEventPayload(acc),
	}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish customer event", slog.String("type", string(eventType)), slog.Any("error", err))
	}
}

func newEventPayload(acc Account) event.CustomerEventPayload {
	payload := event.CustomerEventPayload{
		Email:        acc.Email(),
		Name:         acc.Name(),
		CustomerType: string(acc.Kind()),
		Active:       acc.IsActive(),
		Balance:      acc.Balance(),
		RegisteredAt: acc.RegisteredAt(),
	}
	if vip, ok := acc.(*VIPCustomer); ok {
		payload.Tier = string(vip.Tier())
	}
	return payload
}

func (s *Store) Register(ctx context.Context, acc Account) Outcome {
	logger := s.logger.With(slog.String("email", acc.Email()))
	logger.InfoContext(ctx, "Attempting to register customer")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[acc.Email()]; exists {
		logger.WarnContext(ctx, "Business rule failed: customer already registered")
		return Outcome{
			Status:  StatusDuplicate,
			Email:   acc.Email(),
			Message: fmt.Sprintf("Customer with email %s is already registered.", acc.Email()),
		}
	}

	// The caller keeps its own instance; the store mutates only its copy.
	acc = snapshot(acc)
	s.customers[acc.Email()] = acc
	s.persist(ctx)
	s.publish(ctx, event.CustomerRegistered, acc, nil)

	logger.InfoContext(ctx, "Successfully registered customer", slog.String("kind", string(acc.Kind())))
	return Outcome{
		Status:  StatusOK,
		Email:   acc.Email(),
		Name:    acc.Name(),
		Message: fmt.Sprintf("%s customer '%s' registered successfully.", acc.Kind(), acc.Name()),
	}
}

// Find returns a copy of the customer. Changing it does not change the store.
func (s *Store) Find(email string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.customers[NormalizeEmail(email)]
	if !ok {
		return nil, false
	}
	return snapshot(acc), true
}

// List returns copies in no particular order.
func (s *Store) List(activeOnly bool) []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0, len(s.customers))
	for _, acc := range s.customers {
		if activeOnly && !acc.IsActive() {
			continue
		}
		out = append(out, snapshot(acc))
	}
	return out
}

// ListVIP returns copies of the active VIP customers.
func (s *Store) ListVIP() []*VIPCustomer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*VIPCustomer, 0)
	for _, acc := range s.customers {
		if vip, ok := acc.(*VIPCustomer); ok && vip.IsActive() {
			out = append(out, snapshot(vip).(*VIPCustomer))
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

func (s *Store) Remove(ctx context.Context, email string) Outcome {
	email = NormalizeEmail(email)
	logger := s.logger.With(slog.String("email", email))
	logger.InfoContext(ctx, "Attempting to remove customer")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.customers[email]
	if !ok {
		logger.WarnContext(ctx, customerNotFound)
		return notFound(email)
	}

	delete(s.customers, email)
	s.persist(ctx)
	s.publish(ctx, event.CustomerRemoved, acc, nil)

	logger.InfoContext(ctx, "Successfully removed customer")
	return Outcome{
		Status:  StatusOK,
		Email:   email,
		Name:    acc.Name(),
		Message: fmt.Sprintf("Customer '%s' removed successfully.", acc.Name()),
	}
}

func (s *Store) Activate(ctx context.Context, email string) Outcome {
	return s.setActive(ctx, email, true)
}

func (s *Store) Deactivate(ctx context.Context, email string) Outcome {
	return s.setActive(ctx, email, false)
}

func (s *Store) setActive(ctx context.Context, email string, active bool) Outcome {
	email = NormalizeEmail(email)
	logger := s.logger.With(slog.String("email", email), slog.Bool("isActive", active))
	logger.InfoContext(ctx, "Attempting to change customer status")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.customers[email]
	if !ok {
		logger.WarnContext(ctx, customerNotFound)
		return notFound(email)
	}

	verb := "deactivated"
	if active {
		acc.Activate()
		verb = "activated"
	} else {
		acc.Deactivate()
	}
	s.persist(ctx)
	s.publish(ctx, event.CustomerUpdated, acc, nil)

	logger.InfoContext(ctx, "Successfully changed customer status")
	return Outcome{
		Status:  StatusOK,
		Email:   email,
		Name:    acc.Name(),
		Message: fmt.Sprintf("Customer '%s' %s.", acc.Name(), verb),
	}
}

// Purchase resolves the customer and delegates to its own Purchase, so VIP
// discounts apply without the caller knowing the variant. Only an approved
// purchase is persisted.
func (s *Store) Purchase(ctx context.Context, email string, amount decimal.Decimal) (PurchaseOutcome, Outcome, error) {
	email = NormalizeEmail(email)
	logger := s.logger.With(slog.String("email", email), slog.String("amount", amount.String()))
	logger.InfoContext(ctx, "Attempting purchase")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.customers[email]
	if !ok {
		logger.WarnContext(ctx, customerNotFound)
		return PurchaseOutcome{}, notFound(email), nil
	}

	result, err := acc.Purchase(amount)
	if err != nil {
		logger.WarnContext(ctx, "Validation failed for purchase", slog.Any("error", err))
		return PurchaseOutcome{}, Outcome{}, err
	}

	if !result.Approved {
		logger.WarnContext(ctx, "Purchase declined: insufficient balance",
			slog.String("available", result.Available.String()), slog.String("required", result.Required.String()))
		return result, Outcome{Status: StatusDeclined, Email: email, Name: acc.Name(), Message: result.Message()}, nil
	}

	s.persist(ctx)
	charged := result.Amount
	s.publish(ctx, event.CustomerPurchased, acc, &charged)

	logger.InfoContext(ctx, "Purchase approved", slog.String("remaining", result.RemainingBalance.String()))
	return result, Outcome{Status: StatusOK, Email: email, Name: acc.Name(), Message: result.Message()}, nil
}

func (s *Store) Recharge(ctx context.Context, email string, amount decimal.Decimal) (RechargeOutcome, Outcome, error) {
	email = NormalizeEmail(email)
	logger := s.logger.With(slog.String("email", email), slog.String("amount", amount.String()))
	logger.InfoContext(ctx, "Attempting recharge")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.customers[email]
	if !ok {
		logger.WarnContext(ctx, customerNotFound)
		return RechargeOutcome{}, notFound(email), nil
	}

	result, err := acc.Recharge(amount)
	if err != nil {
		logger.WarnContext(ctx, "Validation failed for recharge", slog.Any("error", err))
		return RechargeOutcome{}, Outcome{}, err
	}

	s.persist(ctx)
	s.publish(ctx, event.CustomerRecharged, acc, &amount)

	logger.InfoContext(ctx, "Recharge applied", slog.String("newBalance", result.NewBalance.String()))
	return result, Outcome{Status: StatusOK, Email: email, Name: acc.Name(), Message: result.Message()}, nil
}

func (s *Store) UpdateDiscount(ctx context.Context, email string, rate decimal.Decimal) (DiscountUpdate, Outcome, error) {
	email = NormalizeEmail(email)
	logger := s.logger.With(slog.String("email", email), slog.String("rate", rate.String()))
	logger.InfoContext(ctx, "Attempting discount update")

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.customers[email]
	if !ok {
		logger.WarnContext(ctx, customerNotFound)
		return DiscountUpdate{}, notFound(email), nil
	}

	vip, ok := acc.(*VIPCustomer)
	if !ok {
		logger.WarnContext(ctx, "Business rule failed: customer is not VIP")
		return DiscountUpdate{}, Outcome{
			Status:  StatusNotVIP,
			Email:   email,
			Name:    acc.Name(),
			Message: fmt.Sprintf("Customer '%s' is not a VIP customer.", acc.Name()),
		}, nil
	}

	update, err := vip.UpdateDiscount(rate)
	if err != nil {
		logger.WarnContext(ctx, "Validation failed for discount update", slog.Any("error", err))
		return DiscountUpdate{}, Outcome{}, err
	}

	s.persist(ctx)
	s.publish(ctx, event.CustomerUpdated, vip, nil)

	logger.InfoContext(ctx, "Discount updated", slog.String("tier", string(update.Tier)))
	return update, Outcome{Status: StatusOK, Email: email, Name: vip.Name(), Message: update.Message()}, nil
}

// TopByBalance returns customers by balance, highest first. Ties are broken
// by email so the order is stable across calls.
func (s *Store) TopByBalance(limit int) []Account {
	return s.ranked(limit, func(a, b Account) int {
		if c := b.Balance().Cmp(a.Balance()); c != 0 {
			return c
		}
		return strings.Compare(a.Email(), b.Email())
	})
}

// Oldest returns customers by registration time, earliest first.
func (s *Store) Oldest(limit int) []Account {
	return s.ranked(limit, func(a, b Account) int {
		if c := a.RegisteredAt().Compare(b.RegisteredAt()); c != 0 {
			return c
		}
		return strings.Compare(a.Email(), b.Email())
	})
}

// ranked sorts and truncates under the read lock, then copies the survivors.
func (s *Store) ranked(limit int, order func(a, b Account) int) []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Account, 0, len(s.customers))
	for _, acc := range s.customers {
		all = append(all, acc)
	}
	slices.SortFunc(all, order)
	return snapshots(truncate(all, limit))
}

func (s *Store) SearchByName(query string) []Account {
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	out := make([]Account, 0)
	for _, acc := range s.customers {
		if strings.Contains(strings.ToLower(acc.Name()), needle) {
			out = append(out, snapshot(acc))
		}
	}
	s.mu.RUnlock()

	SortByName(out)
	return out
}

// SortByName orders accounts by name, then email.
func SortByName(accounts []Account) {
	slices.SortFunc(accounts, func(a, b Account) int {
		return cmp.Or(strings.Compare(a.Name(), b.Name()), strings.Compare(a.Email(), b.Email()))
	})
}

func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return computeStatistics(s.customers)
}

func (s *Store) String() string {
	stats := s.Statistics()
	return fmt.Sprintf("Customers | Total: %d | Active: %d | VIP: %d",
		stats.TotalCustomers, stats.ActiveCustomers, stats.VIPCustomers)
}

func notFound(email string) Outcome {
	return Outcome{
		Status:  StatusNotFound,
		Email:   email,
		Message: fmt.Sprintf("Customer with email %s not found.", email),
	}
}

func truncate(accounts []Account, limit int) []Account {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if len(accounts) > limit {
		return accounts[:limit]
	}
	return accounts
}
