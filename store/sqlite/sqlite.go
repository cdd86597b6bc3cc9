/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the payment repository, the notification store and the
  reminder guard using SQLite. The same SQL runs on PostgreSQL with minor
  dialect changes.

INTERFACES IMPLEMENTED:
  payments.Repository:     Payments, leases and lookup records
  payments.ReminderGuard:  One reminder per subject per day (reminder_log)
  notify.Store:            In-app notifications

OPTIMISTIC LOCKING:
  payments.version is bumped on every UPDATE and the UPDATE only matches
  the revision the caller read:

    UPDATE payments SET ..., version = version + 1
    WHERE id = ? AND version = ?

  Zero rows affected means someone else wrote first -> *ConflictError.

KEY TABLES:
  payments:       Scheduled and recorded rent charges
  leases:         Tenant/property/landlord contracts
  landlords, tenants, properties: Lookup records
  notifications:  Audit trail written by the engine
  reminder_log:   Dedup claims for the reminder job

MONEY:
  Stored as TEXT (decimal strings) so nothing is lost to float rounding.
  Penalty filters cast to REAL, which is exact for zero checks.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payments/store.go: Interface definitions
  - payments/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/boma/rent-engine/payments"
)

var _ payments.Repository = (*Store)(nil)
var _ payments.ReminderGuard = (*Store)(nil)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Lookup records
	CREATE TABLE IF NOT EXISTS landlords (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT,
		email TEXT,
		phone TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		landlord_id TEXT NOT NULL,
		title TEXT NOT NULL,
		address TEXT,
		city TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_properties_landlord
		ON properties(landlord_id);

	-- Leases
	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		landlord_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		monthly_rent TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TEXT NOT NULL
	);

	-- Lease expiry scan (reminder job pass 3)
	CREATE INDEX IF NOT EXISTS idx_leases_status_end
		ON leases(status, end_date);

	-- Payments
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		landlord_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		paid_date TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		penalty_amount TEXT NOT NULL DEFAULT '0',
		payment_method TEXT,
		transaction_id TEXT,
		notes TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Reminder job scans (hot path)
	CREATE INDEX IF NOT EXISTS idx_payments_status_due
		ON payments(status, due_date);

	-- Landlord listings and bulk penalties
	CREATE INDEX IF NOT EXISTS idx_payments_landlord_due
		ON payments(landlord_id, due_date DESC);

	CREATE INDEX IF NOT EXISTS idx_payments_lease
		ON payments(lease_id);

	-- Notifications
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user
		ON notifications(user_id, created_at DESC);

	-- Reminder dedup claims
	CREATE TABLE IF NOT EXISTS reminder_log (
		key TEXT PRIMARY KEY,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAYMENTS (payments.Repository)
// =============================================================================

const paymentColumns = `id, lease_id, tenant_id, property_id, landlord_id, amount, due_date,
	paid_date, status, penalty_amount, payment_method, transaction_id, notes,
	version, created_at, updated_at`

// GetPayment returns nil when the payment does not exist.
func (s *Store) GetPayment(ctx context.Context, id string) (*payments.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Status == "" {
		p.Status = payments.StatusPending
	}

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.LeaseID,
		p.TenantID,
		p.PropertyID,
		p.LandlordID,
		p.Amount.String(),
		formatTime(p.DueDate),
		nullTime(p.PaidDate),
		string(p.Status),
		p.PenaltyAmount.String(),
		nullString(string(p.PaymentMethod)),
		nullString(p.TransactionID),
		nullString(p.Notes),
		p.Version,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payments.Invalid("id", "payment %s already exists", p.ID)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// UpdatePayment writes p only if the stored version still equals p.Version.
func (s *Store) UpdatePayment(ctx context.Context, p *payments.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updatedAt := time.Now().UTC()
	query := `
		UPDATE payments SET
			amount = ?, due_date = ?, paid_date = ?, status = ?, penalty_amount = ?,
			payment_method = ?, transaction_id = ?, notes = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		p.Amount.String(),
		formatTime(p.DueDate),
		nullTime(p.PaidDate),
		string(p.Status),
		p.PenaltyAmount.String(),
		nullString(string(p.PaymentMethod)),
		nullString(p.TransactionID),
		nullString(p.Notes),
		formatTime(updatedAt),
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments WHERE id = ?", p.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if exists == 0 {
			return &payments.NotFoundError{Kind: "payment", ID: p.ID}
		}
		return &payments.ConflictError{PaymentID: p.ID, ExpectedVersion: p.Version}
	}

	p.Version++
	p.UpdatedAt = updatedAt
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &payments.NotFoundError{Kind: "payment", ID: id}
	}
	return nil
}

// FindPayments returns payments matching f. With a Limit the newest due
// dates come first (listing order); without one the oldest come first
// (processing order).
func (s *Store) FindPayments(ctx context.Context, f payments.PaymentFilter) ([]payments.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := paymentWhere(f)
	query := "SELECT " + paymentColumns + " FROM payments" + where
	if f.Limit > 0 {
		query += " ORDER BY due_date DESC, id LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	} else {
		query += " ORDER BY due_date ASC, id"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []payments.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CountPayments(ctx context.Context, f payments.PaymentFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := paymentWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return n, nil
}

func paymentWhere(f payments.PaymentFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.LandlordID != "" {
		clauses = append(clauses, "landlord_id = ?")
		args = append(args, f.LandlordID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.DueFrom != nil {
		clauses = append(clauses, "due_date >= ?")
		args = append(args, formatTime(*f.DueFrom))
	}
	if f.DueTo != nil {
		clauses = append(clauses, "due_date <= ?")
		args = append(args, formatTime(*f.DueTo))
	}
	if f.DueBefore != nil {
		clauses = append(clauses, "due_date < ?")
		args = append(args, formatTime(*f.DueBefore))
	}
	if f.PenaltyZero {
		clauses = append(clauses, "CAST(penalty_amount AS REAL) = 0")
	}
	if f.PenaltyPositive {
		clauses = append(clauses, "CAST(penalty_amount AS REAL) > 0")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (payments.Payment, error) {
	var p payments.Payment
	var amount, dueDate, status, penalty, createdAt, updatedAt string
	var paidDate, method, txID, notes sql.NullString

	err := row.Scan(
		&p.ID, &p.LeaseID, &p.TenantID, &p.PropertyID, &p.LandlordID,
		&amount, &dueDate, &paidDate, &status, &penalty,
		&method, &txID, &notes, &p.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return p, err
	}

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return p, fmt.Errorf("payment %s amount: %w", p.ID, err)
	}
	if p.PenaltyAmount, err = decimal.NewFromString(penalty); err != nil {
		return p, fmt.Errorf("payment %s penalty: %w", p.ID, err)
	}
	p.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if paidDate.Valid {
		t, _ := time.Parse(time.RFC3339, paidDate.String)
		p.PaidDate = &t
	}
	p.Status = payments.Status(status)
	p.PaymentMethod = payments.Method(method.String)
	p.TransactionID = txID.String
	p.Notes = notes.String
	return p, nil
}

// =============================================================================
// LEASES
// =============================================================================

const leaseColumns = `id, tenant_id, property_id, landlord_id, start_date, end_date, monthly_rent, status`

// SaveLease creates or replaces a lease.
func (s *Store) SaveLease(ctx context.Context, l payments.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leases (` + leaseColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			property_id = excluded.property_id,
			landlord_id = excluded.landlord_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			monthly_rent = excluded.monthly_rent,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.TenantID, l.PropertyID, l.LandlordID,
		formatTime(l.StartDate), formatTime(l.EndDate),
		l.MonthlyRent.String(), string(l.Status),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save lease: %w", err)
	}
	return nil
}

func (s *Store) GetLease(ctx context.Context, id string) (*payments.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+leaseColumns+" FROM leases WHERE id = ?", id)
	l, err := scanLease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}
	return &l, nil
}

func (s *Store) FindExpiringLeases(ctx context.Context, from, to time.Time) ([]payments.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE status = ? AND end_date >= ? AND end_date <= ?
		ORDER BY end_date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(payments.LeaseActive), formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}
	defer rows.Close()

	var out []payments.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLease(row scanner) (payments.Lease, error) {
	var l payments.Lease
	var start, end, rent, status string
	if err := row.Scan(&l.ID, &l.TenantID, &l.PropertyID, &l.LandlordID, &start, &end, &rent, &status); err != nil {
		return l, err
	}
	l.StartDate, _ = time.Parse(time.RFC3339, start)
	l.EndDate, _ = time.Parse(time.RFC3339, end)
	l.MonthlyRent, _ = decimal.NewFromString(rent)
	l.Status = payments.LeaseStatus(status)
	return l, nil
}

// =============================================================================
// LOOKUP RECORDS
// =============================================================================

func (s *Store) SaveLandlord(ctx context.Context, l payments.Landlord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO landlords (id, name, email, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email
	`, l.ID, l.Name, nullString(l.Email), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save landlord: %w", err)
	}
	return nil
}

func (s *Store) GetLandlord(ctx context.Context, id string) (*payments.Landlord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l payments.Landlord
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, name, email FROM landlords WHERE id = ?", id).
		Scan(&l.ID, &l.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get landlord: %w", err)
	}
	l.Email = email.String
	return &l, nil
}

func (s *Store) SaveTenant(ctx context.Context, t payments.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, first_name, last_name, email, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name, last_name = excluded.last_name,
			email = excluded.email, phone = excluded.phone
	`, t.ID, t.FirstName, nullString(t.LastName), nullString(t.Email), nullString(t.Phone), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*payments.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t payments.Tenant
	var last, email, phone sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, first_name, last_name, email, phone FROM tenants WHERE id = ?", id).
		Scan(&t.ID, &t.FirstName, &last, &email, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	t.LastName, t.Email, t.Phone = last.String, email.String, phone.String
	return &t, nil
}

func (s *Store) SaveProperty(ctx context.Context, p payments.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, landlord_id, title, address, city, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			landlord_id = excluded.landlord_id, title = excluded.title,
			address = excluded.address, city = excluded.city
	`, p.ID, p.LandlordID, p.Title, nullString(p.Address), nullString(p.City), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*payments.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p payments.Property
	var address, city sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT id, landlord_id, title, address, city FROM properties WHERE id = ?", id).
		Scan(&p.ID, &p.LandlordID, &p.Title, &address, &city)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	p.Address, p.City = address.String, city.String
	return &p, nil
}

// =============================================================================
// NOTIFICATIONS (notify.Store)
// =============================================================================

func (s *Store) SaveNotification(ctx context.Context, n payments.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.CreatedAt.UTC().Format(sortableTime))
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest notifications first. An empty
// userID lists every user.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]payments.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, user_id, type, title, message, created_at FROM notifications"
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []payments.Notification
	for rows.Next() {
		var n payments.Notification
		var typ, createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = payments.NotificationType(typ)
		n.CreatedAt, _ = time.Parse(sortableTime, createdAt)
		out = append(out, n)
	}
	return out, rows.Err()
}

// =============================================================================
// REMINDER GUARD (payments.ReminderGuard)
// =============================================================================

// Claim inserts key, or takes over an expired claim. It returns false
// while an earlier claim is still live.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminder_log (key, expires_at, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
		WHERE reminder_log.expires_at <= ?
	`, key, now.Add(ttl).Format(sortableTime), now.Format(sortableTime), now.Format(sortableTime))
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	return n > 0, nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset deletes all data. Used by the demo seeder.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payments", "leases", "properties", "tenants", "landlords", "notifications", "reminder_log"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sortableTime is fixed width so string comparison orders correctly at
// sub-second resolution.
const sortableTime = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
