package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/boma/rent-engine/payments"
)

// LeaseExpiryEmail is rendered for landlords; it is not a payment email kind.
const LeaseExpiryEmail payments.EmailKind = "LEASE_EXPIRY"

// DefaultBrand signs every email.
const DefaultBrand = "Boma Properties Ltd"

// EmailData is the flattened view every template renders from. Money
// fields are preformatted with the currency.
type EmailData struct {
	Brand string

	RecipientName string
	PropertyTitle string
	Address       string
	City          string

	Amount      string
	Penalty     string
	HasPenalty  bool
	Total       string
	DueDate     string
	DaysOverdue int

	PaidDate      string
	Method        string
	TransactionID string

	LeaseID       string
	LeaseEnd      string
	DaysRemaining int

	CustomMessage string
}

var subjects = map[payments.EmailKind]string{
	payments.EmailPaymentReminder:     "Rent Payment Reminder - %s",
	payments.EmailOverdueNotice:       "Overdue Rent Payment - %s",
	payments.EmailPaymentConfirmation: "Payment Confirmation - %s",
	LeaseExpiryEmail:                  "Lease Expiring Soon - %s",
}

const layout = `{{define "header"}}<html><body>
<h2>{{.Brand}}</h2>
<p>Dear {{.RecipientName}},</p>{{end}}
{{define "property"}}<p><strong>Property:</strong> {{.PropertyTitle}}{{if .Address}}<br>{{.Address}}{{if .City}}, {{.City}}{{end}}{{end}}</p>{{end}}
{{define "custom"}}{{if .CustomMessage}}<p><strong>Additional Message:</strong><br>{{.CustomMessage}}</p>{{end}}{{end}}
{{define "footer"}}<p>Thank you,<br>{{.Brand}} Team</p>
</body></html>{{end}}`

var bodies = map[payments.EmailKind]string{
	payments.EmailPaymentReminder: `{{template "header" .}}
<p>This is a friendly reminder that your rent payment is due soon.</p>
<p><strong>Amount Due:</strong> {{.Amount}}<br>
<strong>Due Date:</strong> {{.DueDate}}</p>
{{template "property" .}}
{{template "custom" .}}
<p>Please ensure payment is made on or before the due date to avoid late penalties.</p>
{{template "footer" .}}`,

	payments.EmailOverdueNotice: `{{template "header" .}}
<p>Your rent payment is now <strong>{{.DaysOverdue}} days overdue</strong>.</p>
<p><strong>Original Amount:</strong> {{.Amount}}<br>
<strong>Due Date:</strong> {{.DueDate}}<br>
{{if .HasPenalty}}<strong>Late Penalty:</strong> {{.Penalty}}<br>{{end}}
<strong>Total Amount Due:</strong> {{.Total}}</p>
{{template "property" .}}
{{template "custom" .}}
<p>Please make payment as soon as possible to avoid further penalties.</p>
{{template "footer" .}}`,

	payments.EmailPaymentConfirmation: `{{template "header" .}}
<p>We have received your rent payment.</p>
<p><strong>Amount Paid:</strong> {{.Amount}}<br>
<strong>Payment Date:</strong> {{.PaidDate}}<br>
<strong>Payment Method:</strong> {{.Method}}<br>
{{if .TransactionID}}<strong>Transaction ID:</strong> {{.TransactionID}}{{end}}</p>
{{template "property" .}}
{{template "custom" .}}
{{template "footer" .}}`,

	LeaseExpiryEmail: `{{template "header" .}}
<p>Lease {{.LeaseID}} ends on <strong>{{.LeaseEnd}}</strong> ({{.DaysRemaining}} days remaining).</p>
{{template "property" .}}
{{template "custom" .}}
{{template "footer" .}}`,
}

// Renderer holds the parsed templates. Safe for concurrent use.
type Renderer struct {
	templates map[payments.EmailKind]*template.Template
}

func NewRenderer() *Renderer {
	base := template.Must(template.New("layout").Parse(layout))
	r := &Renderer{templates: make(map[payments.EmailKind]*template.Template, len(bodies))}
	for kind, body := range bodies {
		t := template.Must(template.Must(base.Clone()).New(string(kind)).Parse(body))
		r.templates[kind] = t
	}
	return r
}

// Render returns the subject line and HTML body for kind.
func (r *Renderer) Render(kind payments.EmailKind, data EmailData) (string, string, error) {
	t, ok := r.templates[kind]
	if !ok {
		return "", "", payments.Invalid("type", "unknown email type %q", kind)
	}
	if data.Brand == "" {
		data.Brand = DefaultBrand
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return fmt.Sprintf(subjects[kind], data.PropertyTitle), buf.String(), nil
}
