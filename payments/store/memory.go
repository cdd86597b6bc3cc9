// Package store provides in-process implementations of the payment
// repository, notification store and reminder guard.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boma/rent-engine/payments"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	payments      map[string]payments.Payment
	leases        map[string]payments.Lease
	tenants       map[string]payments.Tenant
	properties    map[string]payments.Property
	landlords     map[string]payments.Landlord
	notifications []payments.Notification
	claims        map[string]time.Time // key -> expiry

	// Now drives claim expiry. Defaults to time.Now.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		payments:   make(map[string]payments.Payment),
		leases:     make(map[string]payments.Lease),
		tenants:    make(map[string]payments.Tenant),
		properties: make(map[string]payments.Property),
		landlords:  make(map[string]payments.Landlord),
		claims:     make(map[string]time.Time),
		Now:        time.Now,
	}
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) GetPayment(_ context.Context, id string) (*payments.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) CreatePayment(_ context.Context, p *payments.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.payments[p.ID]; exists {
		return payments.Invalid("id", "payment %s already exists", p.ID)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	m.payments[p.ID] = *p
	return nil
}

// UpdatePayment writes p if its version matches the stored one.
func (m *Memory) UpdatePayment(_ context.Context, p *payments.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.payments[p.ID]
	if !ok {
		return &payments.NotFoundError{Kind: "payment", ID: p.ID}
	}
	if cur.Version != p.Version {
		return &payments.ConflictError{PaymentID: p.ID, ExpectedVersion: p.Version}
	}
	p.Version++
	p.UpdatedAt = m.Now().UTC()
	m.payments[p.ID] = *p
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return &payments.NotFoundError{Kind: "payment", ID: id}
	}
	delete(m.payments, id)
	return nil
}

func (m *Memory) FindPayments(_ context.Context, f payments.PaymentFilter) ([]payments.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payments.Payment
	for _, p := range m.payments {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	if f.Limit > 0 {
		sort.Slice(out, func(i, j int) bool { return out[i].DueDate.After(out[j].DueDate) })
		if f.Offset >= len(out) {
			return nil, nil
		}
		end := min(f.Offset+f.Limit, len(out))
		return out[f.Offset:end], nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *Memory) CountPayments(_ context.Context, f payments.PaymentFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.payments {
		if f.Match(p) {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// LEASES AND LOOKUPS
// =============================================================================

func (m *Memory) GetLease(_ context.Context, id string) (*payments.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leases[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *Memory) FindExpiringLeases(_ context.Context, from, to time.Time) ([]payments.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payments.Lease
	for _, l := range m.leases {
		if l.Status == payments.LeaseActive && !l.EndDate.Before(from) && !l.EndDate.After(to) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (m *Memory) GetTenant(_ context.Context, id string) (*payments.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) GetProperty(_ context.Context, id string) (*payments.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) GetLandlord(_ context.Context, id string) (*payments.Landlord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.landlords[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// Seeding helpers.

func (m *Memory) PutLease(l payments.Lease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[l.ID] = l
}

func (m *Memory) PutTenant(t payments.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

func (m *Memory) PutProperty(p payments.Property) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[p.ID] = p
}

func (m *Memory) PutLandlord(l payments.Landlord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landlords[l.ID] = l
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (m *Memory) SaveNotification(_ context.Context, n payments.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

// ListNotifications returns the newest notifications for userID first.
// An empty userID matches every user.
func (m *Memory) ListNotifications(_ context.Context, userID string, limit int) ([]payments.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payments.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if userID != "" && n.UserID != userID {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// =============================================================================
// REMINDER GUARD
// =============================================================================

func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	if exp, ok := m.claims[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.claims[key] = now.Add(ttl)
	return true, nil
}
