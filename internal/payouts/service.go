package payouts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/thekada/revenue-engine/internal/mailer"
	"github.com/thekada/revenue-engine/internal/reconcile"
	"github.com/thekada/revenue-engine/internal/shared"
)

// Ledger is the payout persistence contract.
type Ledger interface {
	Insert(ctx context.Context, req ProcessRequest, emailSent bool) (Record, error)
	MarkEmailSent(ctx context.Context, id string) error
	History(ctx context.Context, year int, month time.Month) ([]Record, error)
	Recipients(ctx context.Context) ([]Recipient, error)
	ContactByFranchise(ctx context.Context, franchiseID int64) (Contact, error)
}

// EarningsSource provides the per-zone delivered-earnings breakdown.
type EarningsSource interface {
	Earnings(ctx context.Context, zoneID int64, from, to string) reconcile.EarningsReport
}

// Auditor records payout audit entries without blocking the caller.
type Auditor interface {
	RecordAsync(e shared.AuditEntry)
}

// Service runs the payout flow: persist first, notify best effort, audit
// fire-and-forget. A failed email never unwinds a stored payout.
type Service struct {
	ledger   Ledger
	earnings EarningsSource
	sender   mailer.Sender
	audit    Auditor
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService wires the payout processor. sender and audit may be nil.
func NewService(ledger Ledger, earnings EarningsSource, sender mailer.Sender, audit Auditor, logger *slog.Logger) *Service {
	return &Service{
		ledger:   ledger,
		earnings: earnings,
		sender:   sender,
		audit:    audit,
		logger:   logger,
		validate: validator.New(),
	}
}

// Process validates and persists one payout, then attempts the notification
// email and records an audit entry.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (Record, error) {
	if err := s.validate.Struct(req); err != nil {
		return Record{}, fmt.Errorf("payouts: %w", err)
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return Record{}, fmt.Errorf("payouts: amount must be positive")
	}

	rec, err := s.ledger.Insert(ctx, req, false)
	if err != nil {
		return Record{}, err
	}

	if sent := s.notify(ctx, rec, req.InvoiceBase64); sent {
		rec.EmailSent = true
		if err := s.ledger.MarkEmailSent(ctx, rec.ID); err != nil {
			s.logger.Warn("payout email flag update failed", slog.String("payout", rec.ID), slog.Any("error", err))
		}
	}

	if s.audit != nil {
		s.audit.RecordAsync(shared.AuditEntry{
			ActorID:   req.ActorID,
			ActorType: "admin",
			Action:    "PAYOUT_PROCESSED",
			Entity:    "payout",
			EntityID:  rec.ID,
			Details: map[string]any{
				"franchiseId":     rec.FranchiseID,
				"amount":          rec.Amount.String(),
				"revenueReported": rec.RevenueReported.String(),
				"ordersCount":     rec.OrdersCount,
			},
		})
	}
	return rec, nil
}

// notify sends the payout email when a contact address and invoice exist.
// Every failure path logs and returns false; the payout is already stored.
func (s *Service) notify(ctx context.Context, rec Record, invoiceBase64 string) bool {
	if s.sender == nil {
		return false
	}
	contact, err := s.ledger.ContactByFranchise(ctx, rec.FranchiseID)
	if err != nil {
		s.logger.Warn("payout contact lookup failed", slog.String("payout", rec.ID), slog.Any("error", err))
		return false
	}
	if contact.Email == "" {
		s.logger.Info("payout processed without notification, no email on file",
			slog.Int64("franchise", rec.FranchiseID))
		return false
	}

	msg := mailer.Message{
		To:      contact.Email,
		Subject: "Your Kada payout has been processed",
		HTMLBody: mailer.PayoutInvoiceBody(
			contact.Name, rec.Amount.StringFixed(2), rec.RevenueReported.StringFixed(2),
			rec.OrdersCount, rec.PayoutDate.Format("2006-01-02")),
	}
	if invoiceBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(invoiceBase64)
		if err != nil {
			s.logger.Warn("payout invoice attachment malformed", slog.String("payout", rec.ID), slog.Any("error", err))
		} else {
			msg.Attachments = append(msg.Attachments, mailer.Attachment{
				Filename:    "invoice.pdf",
				ContentType: "application/pdf",
				Data:        data,
			})
		}
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("payout email send failed", slog.String("payout", rec.ID), slog.Any("error", err))
		return false
	}
	return true
}

// History lists payout records, optionally scoped to one month.
func (s *Service) History(ctx context.Context, year int, month time.Month) ([]Record, error) {
	return s.ledger.History(ctx, year, month)
}

// Recipients lists approved franchises with their banking details.
func (s *Service) Recipients(ctx context.Context) ([]Recipient, error) {
	return s.ledger.Recipients(ctx)
}

// Earnings reports a zone's per-day delivered earnings plus today's pending
// figure.
func (s *Service) Earnings(ctx context.Context, zoneID int64, from, to string) reconcile.EarningsReport {
	return s.earnings.Earnings(ctx, zoneID, from, to)
}
