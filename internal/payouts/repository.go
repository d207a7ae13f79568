package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUndefinedTable is the class 42 code raised when payout_logs has not been
// migrated yet. History treats it as an empty ledger.
const pgUndefinedTable = "42P01"

// ErrContactNotFound reports a franchise with no stored contact row.
var ErrContactNotFound = errors.New("payouts: franchise contact not found")

// Repository is the payout ledger on the primary store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository on the primary pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists one processed payout and returns the stored record.
func (r *Repository) Insert(ctx context.Context, req ProcessRequest, emailSent bool) (Record, error) {
	rec := Record{
		ID:                  uuid.NewString(),
		FranchiseID:         req.FranchiseID,
		Amount:              req.Amount,
		RevenueReported:     req.RevenueReported,
		OrdersCount:         req.OrdersCount,
		SharePercentage:     req.SharePercentage,
		PlatformFeePerOrder: req.PlatformFeePerOrder,
		TotalFeeDeducted:    req.TotalFeeDeducted,
		Status:              StatusProcessed,
		PayoutDate:          time.Now().UTC(),
		EmailSent:           emailSent,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payout_logs
			(id, franchise_id, amount, revenue_reported, orders_count, share_percentage,
			 platform_fee_per_order, total_fee_deducted, status, payout_date, email_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.FranchiseID, rec.Amount, rec.RevenueReported, rec.OrdersCount,
		rec.SharePercentage, rec.PlatformFeePerOrder, rec.TotalFeeDeducted,
		rec.Status, rec.PayoutDate, rec.EmailSent,
	)
	if err != nil {
		return Record{}, fmt.Errorf("payouts: insert payout: %w", err)
	}
	return rec, nil
}

// MarkEmailSent flips the notification flag after a successful send.
func (r *Repository) MarkEmailSent(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE payout_logs SET email_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("payouts: mark email sent: %w", err)
	}
	return nil
}

// History lists payout records newest first, joined with the franchise
// identity. A missing payout_logs table reads as an empty ledger rather than
// an error: fresh deployments have no migration yet.
func (r *Repository) History(ctx context.Context, year int, month time.Month) ([]Record, error) {
	query := `
		SELECT p.id, p.franchise_id, p.amount, p.revenue_reported, p.orders_count,
		       p.share_percentage, p.platform_fee_per_order, p.total_fee_deducted,
		       p.status, p.payout_date, p.email_sent,
		       COALESCE(f.name, ''), COALESCE(f.city, '')
		FROM payout_logs p
		LEFT JOIN franchise_requests f ON f.id = p.franchise_id`
	args := []any{}
	if year > 0 {
		query += `
		WHERE p.payout_date >= $1 AND p.payout_date < $2`
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		args = append(args, start, start.AddDate(0, 1, 0))
	}
	query += `
		ORDER BY p.payout_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("payouts: query history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.FranchiseID, &rec.Amount, &rec.RevenueReported,
			&rec.OrdersCount, &rec.SharePercentage, &rec.PlatformFeePerOrder,
			&rec.TotalFeeDeducted, &rec.Status, &rec.PayoutDate, &rec.EmailSent,
			&rec.FranchiseName, &rec.City,
		); err != nil {
			return nil, fmt.Errorf("payouts: scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		if isUndefinedTable(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("payouts: iterate history: %w", err)
	}
	return records, nil
}

// Recipients lists approved franchises with banking details, name ascending.
func (r *Repository) Recipients(ctx context.Context) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(city, ''), COALESCE(email, ''),
		       COALESCE(zone_id, 0),
		       COALESCE(bank_name, ''), COALESCE(account_number, ''), COALESCE(ifsc_code, '')
		FROM franchise_requests
		WHERE status = 'approved'
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("payouts: query recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]Recipient, 0)
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(
			&rec.FranchiseID, &rec.Name, &rec.City, &rec.Email, &rec.ZoneID,
			&rec.BankName, &rec.AccountNumber, &rec.IFSCCode,
		); err != nil {
			return nil, fmt.Errorf("payouts: scan recipient: %w", err)
		}
		recipients = append(recipients, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payouts: iterate recipients: %w", err)
	}
	return recipients, nil
}

// ContactByFranchise looks up the notification target for one franchise.
func (r *Repository) ContactByFranchise(ctx context.Context, franchiseID int64) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(name, ''), COALESCE(email, '')
		FROM franchise_requests
		WHERE id = $1`, franchiseID,
	).Scan(&c.Name, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, fmt.Errorf("payouts: query contact: %w", err)
	}
	return c, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
