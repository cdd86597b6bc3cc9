/*
sink.go - NotificationSink backed by a store, a mail transport and an event bus

PURPOSE:

	Sink is the production payments.NotificationSink. In-app notifications
	are persisted through Store and optionally fanned out to Publisher.
	Payment and lease emails are rendered from the templates, handed to
	Sender, and followed by an EMAIL_SENT notification for the landlord.

FAILURE MODEL:

	A failed send is returned to the caller, which reports it without
	undoing the payment write. Failures after the send (the EMAIL_SENT
	record, event publishing) are logged only: the email already left.
*/
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/boma/rent-engine/payments"
)

// Store persists in-app notifications.
type Store interface {
	SaveNotification(ctx context.Context, n payments.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]payments.Notification, error)
}

// Directory resolves the people and places an email is about.
type Directory interface {
	GetTenant(ctx context.Context, id string) (*payments.Tenant, error)
	GetProperty(ctx context.Context, id string) (*payments.Property, error)
	GetLandlord(ctx context.Context, id string) (*payments.Landlord, error)
}

type Sink struct {
	Store     Store
	Directory Directory
	Sender    Sender
	Renderer  *Renderer
	// Publisher is optional.
	Publisher Publisher

	From     string
	Brand    string
	Currency string
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewSink(store Store, dir Directory, sender Sender, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		Store:     store,
		Directory: dir,
		Sender:    sender,
		Renderer:  NewRenderer(),
		From:      "noreply@boma.co.ke",
		Brand:     DefaultBrand,
		Currency:  "KES",
		Logger:    logger,
		Now:       time.Now,
	}
}

var _ payments.NotificationSink = (*Sink)(nil)

func (s *Sink) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// =============================================================================
// IN-APP NOTIFICATIONS
// =============================================================================

func (s *Sink) CreateNotification(ctx context.Context, n payments.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.Store.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("save notification %q: %w", n.Title, err)
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, EventFromNotification(n)); err != nil {
			s.Logger.Warn("notification event not published", "notification", n.ID, "type", n.Type, "error", err)
		}
	}
	return nil
}

// =============================================================================
// EMAIL
// =============================================================================

func (s *Sink) SendPaymentEmail(ctx context.Context, kind payments.EmailKind, p payments.Payment, customMessage string) error {
	if !kind.Valid() {
		return payments.Invalid("type", "unknown email type %q", kind)
	}
	tenant, err := s.Directory.GetTenant(ctx, p.TenantID)
	if err != nil {
		return fmt.Errorf("lookup tenant %s: %w", p.TenantID, err)
	}
	if tenant == nil {
		return &payments.NotFoundError{Kind: "tenant", ID: p.TenantID}
	}
	if tenant.Email == "" {
		return payments.Invalid("email", "tenant %s has no email address", tenant.ID)
	}

	now := s.now()
	data := s.baseData(tenant.FullName(), customMessage)
	s.fillProperty(ctx, &data, p.PropertyID)
	data.Amount = payments.FormatMoney(s.Currency, p.Amount)
	data.Penalty = payments.FormatMoney(s.Currency, p.PenaltyAmount)
	data.HasPenalty = p.HasPenalty()
	data.Total = payments.FormatMoney(s.Currency, p.TotalDue())
	data.DueDate = longDate(p.DueDate)
	data.DaysOverdue = max(payments.DaysOverdue(p.DueDate, now), 0)
	data.PaidDate = longDate(now)
	if p.PaidDate != nil {
		data.PaidDate = longDate(*p.PaidDate)
	}
	data.Method = "Not specified"
	if p.PaymentMethod != "" {
		data.Method = string(p.PaymentMethod)
	}
	data.TransactionID = p.TransactionID

	return s.deliver(ctx, kind, tenant.Email, p.LandlordID, data)
}

func (s *Sink) SendLeaseEmail(ctx context.Context, l payments.Lease, message string) error {
	landlord, err := s.Directory.GetLandlord(ctx, l.LandlordID)
	if err != nil {
		return fmt.Errorf("lookup landlord %s: %w", l.LandlordID, err)
	}
	if landlord == nil {
		return &payments.NotFoundError{Kind: "landlord", ID: l.LandlordID}
	}
	if landlord.Email == "" {
		return payments.Invalid("email", "landlord %s has no email address", landlord.ID)
	}

	data := s.baseData(landlord.Name, message)
	s.fillProperty(ctx, &data, l.PropertyID)
	data.LeaseID = l.ID
	data.LeaseEnd = longDate(l.EndDate)
	data.DaysRemaining = int(math.Ceil(l.EndDate.Sub(s.now()).Hours() / 24))

	return s.deliver(ctx, LeaseExpiryEmail, landlord.Email, l.LandlordID, data)
}

func (s *Sink) deliver(ctx context.Context, kind payments.EmailKind, to, landlordID string, data EmailData) error {
	subject, body, err := s.Renderer.Render(kind, data)
	if err != nil {
		return err
	}
	rcpt := []string{to}
	raw := BuildMessage(s.From, rcpt, subject, body, s.now())
	if err := s.Sender.Send(ctx, rcpt, subject, raw); err != nil {
		return err
	}
	s.Logger.Info("email sent", "type", kind, "to", to)

	err = s.CreateNotification(ctx, payments.Notification{
		Title:   "Email Sent: " + subject,
		Message: fmt.Sprintf("%s email sent to %s", kind, to),
		Type:    payments.NotifyEmailSent,
		UserID:  landlordID,
	})
	if err != nil {
		s.Logger.Warn("email sent but not recorded", "type", kind, "to", to, "error", err)
	}
	return nil
}

func (s *Sink) baseData(recipient, custom string) EmailData {
	return EmailData{Brand: s.Brand, RecipientName: recipient, CustomMessage: custom}
}

// fillProperty is best effort; an email without an address still goes out.
func (s *Sink) fillProperty(ctx context.Context, data *EmailData, propertyID string) {
	data.PropertyTitle = propertyID
	prop, err := s.Directory.GetProperty(ctx, propertyID)
	if err != nil {
		s.Logger.Warn("property lookup failed", "property", propertyID, "error", err)
		return
	}
	if prop == nil {
		return
	}
	data.PropertyTitle = prop.Title
	data.Address = prop.Address
	data.City = prop.City
}

func longDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
