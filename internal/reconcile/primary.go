package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thekada/revenue-engine/internal/commission"
)

// ErrNoAssignment indicates a zone without an approved franchise. Callers
// resolve it by policy (free tier, generic display label), never as a
// request failure.
var ErrNoAssignment = errors.New("reconcile: no approved assignment for zone")

// PrimaryRepo reads franchise assignments and support tickets from the
// portal's own store.
type PrimaryRepo struct {
	pool *pgxpool.Pool
}

// NewPrimaryRepo constructs the repository.
func NewPrimaryRepo(pool *pgxpool.Pool) *PrimaryRepo {
	return &PrimaryRepo{pool: pool}
}

// ApprovedAssignments lists every approved franchise with an assigned zone.
// Pending applications have no zone yet and are excluded.
func (r *PrimaryRepo) ApprovedAssignments(ctx context.Context) ([]FranchiseAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, zone_id, plan_selected, name, city, email
		FROM franchise_requests
		WHERE status = 'approved' AND zone_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("reconcile: approved assignments: %w", err)
	}
	defer rows.Close()

	var assignments []FranchiseAssignment
	for rows.Next() {
		var a FranchiseAssignment
		var plan string
		if err := rows.Scan(&a.FranchiseID, &a.ZoneID, &plan, &a.Name, &a.City, &a.Email); err != nil {
			return nil, fmt.Errorf("reconcile: scan assignment: %w", err)
		}
		a.PlanTier = commission.ParseTier(plan)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// AssignmentByZone returns the approved assignment operating in a zone, or
// ErrNoAssignment.
func (r *PrimaryRepo) AssignmentByZone(ctx context.Context, zoneID int64) (FranchiseAssignment, error) {
	var a FranchiseAssignment
	var plan string
	err := r.pool.QueryRow(ctx, `
		SELECT id, zone_id, plan_selected, name, city, email
		FROM franchise_requests
		WHERE zone_id = $1 AND status = 'approved'
		LIMIT 1`, zoneID).Scan(&a.FranchiseID, &a.ZoneID, &plan, &a.Name, &a.City, &a.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FranchiseAssignment{}, ErrNoAssignment
		}
		return FranchiseAssignment{}, fmt.Errorf("reconcile: assignment by zone: %w", err)
	}
	a.PlanTier = commission.ParseTier(plan)
	return a, nil
}

// FranchiseCounts summarises the application pipeline.
func (r *PrimaryRepo) FranchiseCounts(ctx context.Context) (FranchiseCounts, error) {
	var c FranchiseCounts
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending_verification'),
		       COUNT(*) FILTER (WHERE status = 'approved')
		FROM franchise_requests`).Scan(&c.Total, &c.Pending, &c.Approved)
	if err != nil {
		return FranchiseCounts{}, fmt.Errorf("reconcile: franchise counts: %w", err)
	}
	return c, nil
}

// TicketCounts summarises the support queue. Tickets without a status count
// as pending.
func (r *PrimaryRepo) TicketCounts(ctx context.Context) (TicketCounts, error) {
	var c TicketCounts
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status IS NULL OR status = 'open'),
		       COUNT(*) FILTER (WHERE status = 'replied')
		FROM support_tickets`).Scan(&c.Pending, &c.Replied)
	if err != nil {
		return TicketCounts{}, fmt.Errorf("reconcile: ticket counts: %w", err)
	}
	return c, nil
}
