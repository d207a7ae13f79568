package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thekada/revenue-engine/internal/shared"
)

// OperationalRepo reads order, transaction, and zone data from the logistics
// vendor's MySQL store. Every method issues a single grouped query; the
// engine never walks orders row by row.
type OperationalRepo struct {
	db *sql.DB
}

// NewOperationalRepo constructs the repository.
func NewOperationalRepo(db *sql.DB) *OperationalRepo {
	return &OperationalRepo{db: db}
}

// ZoneOrderStats aggregates orders per zone inside the window. Revenue and
// commission figures count delivered orders only; the raw order count keeps
// every status so histograms stay honest.
func (r *OperationalRepo) ZoneOrderStats(ctx context.Context, w Window) ([]OrderAggregate, error) {
	query := `
		SELECT o.zone_id,
		       COUNT(DISTINCT o.id) AS order_count,
		       COUNT(DISTINCT CASE WHEN o.order_status = 'delivered' THEN o.id END) AS delivered_count,
		       COALESCE(SUM(CASE WHEN o.order_status = 'delivered' THEN o.order_amount ELSE 0 END), 0) AS gross_revenue,
		       COALESCE(SUM(CASE WHEN o.order_status = 'delivered' THEN ot.admin_commission ELSE 0 END), 0) AS admin_commission
		FROM orders o
		INNER JOIN order_transactions ot ON o.id = ot.order_id`
	args := make([]any, 0, 2)
	where := ""
	if !w.From.IsZero() {
		where += " WHERE o.created_at >= ?"
		args = append(args, w.From)
	}
	if !w.To.IsZero() {
		if where == "" {
			where = " WHERE o.created_at < ?"
		} else {
			where += " AND o.created_at < ?"
		}
		args = append(args, w.To)
	}
	query += where + " GROUP BY o.zone_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reconcile: zone order stats: %w", err)
	}
	defer rows.Close()

	var stats []OrderAggregate
	for rows.Next() {
		var agg OrderAggregate
		var gross, adminCommission decimal.NullDecimal
		if err := rows.Scan(&agg.ZoneID, &agg.OrderCount, &agg.DeliveredOrderCount, &gross, &adminCommission); err != nil {
			return nil, fmt.Errorf("reconcile: scan zone order stats: %w", err)
		}
		agg.GrossRevenue = gross.Decimal
		agg.AdminCommissionTotal = adminCommission.Decimal
		stats = append(stats, agg)
	}
	return stats, rows.Err()
}

// MonthlyRevenueTrend buckets delivered revenue by month for the trailing
// window of n months.
func (r *OperationalRepo) MonthlyRevenueTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(o.created_at, '%Y-%m') AS month,
		       COALESCE(SUM(CASE WHEN o.order_status = 'delivered' THEN o.order_amount ELSE 0 END), 0) AS revenue,
		       COUNT(DISTINCT o.id) AS order_count
		FROM orders o
		WHERE o.created_at >= DATE_SUB(NOW(), INTERVAL ? MONTH)
		GROUP BY DATE_FORMAT(o.created_at, '%Y-%m')
		ORDER BY month ASC`, months)
	if err != nil {
		return nil, fmt.Errorf("reconcile: monthly revenue trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		var revenue decimal.NullDecimal
		if err := rows.Scan(&p.Month, &revenue, &p.OrderCount); err != nil {
			return nil, fmt.Errorf("reconcile: scan trend point: %w", err)
		}
		p.Revenue = revenue.Decimal
		points = append(points, p)
	}
	return points, rows.Err()
}

// StatusHistogram counts orders per status for the trailing day window.
func (r *OperationalRepo) StatusHistogram(ctx context.Context, days int) ([]StatusCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_status, COUNT(*) AS cnt
		FROM orders
		WHERE created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY order_status
		ORDER BY cnt DESC`, days)
	if err != nil {
		return nil, fmt.Errorf("reconcile: status histogram: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("reconcile: scan status count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TopZones ranks zones by delivered revenue over the trailing day window.
func (r *OperationalRepo) TopZones(ctx context.Context, days, limit int) ([]ZonePerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.zone_id, z.name,
		       COUNT(DISTINCT o.id) AS orders,
		       COALESCE(SUM(o.order_amount), 0) AS revenue
		FROM orders o
		JOIN zones z ON o.zone_id = z.id
		WHERE o.order_status = 'delivered'
		  AND o.created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
		GROUP BY o.zone_id, z.name
		ORDER BY revenue DESC
		LIMIT ?`, days, limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile: top zones: %w", err)
	}
	defer rows.Close()

	var zones []ZonePerformance
	for rows.Next() {
		var zp ZonePerformance
		var revenue decimal.NullDecimal
		if err := rows.Scan(&zp.ZoneID, &zp.ZoneName, &zp.Orders, &revenue); err != nil {
			return nil, fmt.Errorf("reconcile: scan zone performance: %w", err)
		}
		zp.Revenue = revenue.Decimal
		zones = append(zones, zp)
	}
	return zones, rows.Err()
}

// Zones lists the active zones. Some vendor deployments carry no status
// column values, so a failed filtered query falls back to the bare list.
func (r *OperationalRepo) Zones(ctx context.Context) ([]Zone, error) {
	zones, err := r.listZones(ctx, `SELECT id, name FROM zones WHERE status = 1`)
	if err != nil {
		zones, err = r.listZones(ctx, `SELECT id, name FROM zones`)
	}
	return zones, err
}

func (r *OperationalRepo) listZones(ctx context.Context, query string) ([]Zone, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name); err != nil {
			return nil, fmt.Errorf("reconcile: scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// MonthZoneLeaderboard ranks zones by order count for one month.
func (r *OperationalRepo) MonthZoneLeaderboard(ctx context.Context, year int, month time.Month, limit int) ([]LeaderboardRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.zone_id, z.name,
		       COUNT(DISTINCT o.id) AS total_orders,
		       COUNT(DISTINCT CASE WHEN o.order_status = 'delivered' THEN o.id END) AS completed_orders,
		       COALESCE(SUM(CASE WHEN o.order_status = 'delivered' THEN o.order_amount ELSE 0 END), 0) AS total_revenue,
		       COALESCE(AVG(CASE WHEN o.order_status = 'delivered' THEN o.order_amount END), 0) AS avg_order_value
		FROM orders o
		JOIN zones z ON o.zone_id = z.id
		WHERE YEAR(o.created_at) = ? AND MONTH(o.created_at) = ?
		GROUP BY o.zone_id, z.name
		HAVING total_orders > 0
		ORDER BY total_orders DESC
		LIMIT ?`, year, int(month), limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile: month leaderboard: %w", err)
	}
	defer rows.Close()

	var board []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		var revenue, avg decimal.NullDecimal
		if err := rows.Scan(&row.ZoneID, &row.ZoneName, &row.TotalOrders, &row.CompletedOrders, &revenue, &avg); err != nil {
			return nil, fmt.Errorf("reconcile: scan leaderboard row: %w", err)
		}
		row.TotalRevenue = revenue.Decimal
		row.AvgOrderValue = avg.Decimal
		board = append(board, row)
	}
	return board, rows.Err()
}

// ZoneOrderHistory buckets order counts by (month, zone) for the trailing
// n months, newest months first.
func (r *OperationalRepo) ZoneOrderHistory(ctx context.Context, months int) ([]HistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_FORMAT(o.created_at, '%Y-%m') AS month, z.name,
		       COUNT(DISTINCT o.id) AS orders_count
		FROM orders o
		JOIN zones z ON o.zone_id = z.id
		WHERE o.created_at >= DATE_SUB(NOW(), INTERVAL ? MONTH)
		GROUP BY DATE_FORMAT(o.created_at, '%Y-%m'), z.name
		ORDER BY month DESC, orders_count DESC`, months)
	if err != nil {
		return nil, fmt.Errorf("reconcile: zone order history: %w", err)
	}
	defer rows.Close()

	var history []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.Month, &h.ZoneName, &h.OrdersCount); err != nil {
			return nil, fmt.Errorf("reconcile: scan history row: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ActiveZoneStats counts zones with at least one order, and total orders,
// for one month.
func (r *OperationalRepo) ActiveZoneStats(ctx context.Context, year int, month time.Month) (MonthActivity, error) {
	var act MonthActivity
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT zone_id), COUNT(*)
		FROM orders
		WHERE YEAR(created_at) = ? AND MONTH(created_at) = ?`, year, int(month)).
		Scan(&act.ActiveZones, &act.TotalOrders)
	if err != nil {
		return MonthActivity{}, fmt.Errorf("reconcile: active zone stats: %w", err)
	}
	return act, nil
}

// DailyEarnings breaks a zone's delivered earnings down per day, newest
// first, optionally bounded by [from, to] dates (YYYY-MM-DD).
func (r *OperationalRepo) DailyEarnings(ctx context.Context, zoneID int64, from, to string) ([]DailyEarning, error) {
	query := `
		SELECT DATE(ot.created_at) AS day,
		       COUNT(DISTINCT o.id) AS total_orders,
		       COALESCE(SUM(ot.store_amount), 0) AS store_earnings,
		       COALESCE(SUM(ot.delivery_charge), 0) AS delivery_earnings,
		       COALESCE(SUM(ot.store_amount + ot.delivery_charge), 0) AS total_earnings,
		       COALESCE(SUM(ot.tax), 0) AS total_tax
		FROM orders o
		INNER JOIN order_transactions ot ON o.id = ot.order_id
		WHERE o.zone_id = ? AND o.order_status = 'delivered'`
	args := []any{zoneID}
	if from != "" {
		query += " AND DATE(ot.created_at) >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND DATE(ot.created_at) <= ?"
		args = append(args, to)
	}
	query += " GROUP BY DATE(ot.created_at) ORDER BY day DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reconcile: daily earnings: %w", err)
	}
	defer rows.Close()

	var earnings []DailyEarning
	for rows.Next() {
		var e DailyEarning
		var store, delivery, total, tax decimal.NullDecimal
		if err := rows.Scan(&e.Date, &e.TotalOrders, &store, &delivery, &total, &tax); err != nil {
			return nil, fmt.Errorf("reconcile: scan daily earning: %w", err)
		}
		e.StoreEarnings = store.Decimal
		e.DeliveryEarnings = delivery.Decimal
		e.TotalEarnings = total.Decimal
		e.TotalTax = tax.Decimal
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}

// TodaysPending sums today's delivered but not yet settled earnings for a
// zone.
func (r *OperationalRepo) TodaysPending(ctx context.Context, zoneID int64) (PendingToday, error) {
	var pending PendingToday
	var amount decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT o.id),
		       COALESCE(SUM(ot.store_amount + ot.delivery_charge), 0)
		FROM orders o
		INNER JOIN order_transactions ot ON o.id = ot.order_id
		WHERE o.zone_id = ? AND o.order_status = 'delivered' AND DATE(ot.created_at) = CURDATE()`, zoneID).
		Scan(&pending.Orders, &amount)
	if err != nil {
		return PendingToday{}, fmt.Errorf("reconcile: todays pending: %w", err)
	}
	pending.Amount = amount.Decimal
	return pending, nil
}

// ZoneCommission totals a zone's delivered admin commission. Commission
// lives on order_transactions, not on orders.
func (r *OperationalRepo) ZoneCommission(ctx context.Context, zoneID int64) (ZoneCommission, error) {
	var zc ZoneCommission
	var commission decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ot.admin_commission), 0), COUNT(DISTINCT o.id)
		FROM orders o
		INNER JOIN order_transactions ot ON o.id = ot.order_id
		WHERE o.zone_id = ? AND o.order_status = 'delivered'`, zoneID).
		Scan(&commission, &zc.DeliveredOrders)
	if err != nil {
		return ZoneCommission{}, fmt.Errorf("reconcile: zone commission: %w", err)
	}
	zc.AdminCommissionTotal = commission.Decimal
	return zc, nil
}

// ZoneCommissionOn is ZoneCommission restricted to a single day.
func (r *OperationalRepo) ZoneCommissionOn(ctx context.Context, zoneID int64, day string) (ZoneCommission, error) {
	var zc ZoneCommission
	var commission decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(ot.admin_commission), 0), COUNT(DISTINCT o.id)
		FROM orders o
		INNER JOIN order_transactions ot ON o.id = ot.order_id
		WHERE ot.zone_id = ? AND o.order_status = 'delivered' AND DATE(o.created_at) = ?`, zoneID, day).
		Scan(&commission, &zc.DeliveredOrders)
	if err != nil {
		return ZoneCommission{}, fmt.Errorf("reconcile: zone commission on day: %w", err)
	}
	zc.AdminCommissionTotal = commission.Decimal
	return zc, nil
}

// ActiveOrderCount counts a zone's orders not yet in a terminal state.
func (r *OperationalRepo) ActiveOrderCount(ctx context.Context, zoneID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE zone_id = ? AND order_status NOT IN ('delivered', 'canceled', 'failed', 'refunded')`, zoneID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("reconcile: active order count: %w", err)
	}
	return count, nil
}

// ZoneInfrastructureCounts groups vendor stores and couriers by zone.
func (r *OperationalRepo) ZoneInfrastructureCounts(ctx context.Context) ([]ZoneInfrastructure, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT z.id,
		       (SELECT COUNT(*) FROM stores s WHERE s.zone_id = z.id AND s.status = 1) AS stores,
		       (SELECT COUNT(*) FROM delivery_men d WHERE d.zone_id = z.id AND d.active = 1) AS couriers
		FROM zones z`)
	if err != nil {
		return nil, fmt.Errorf("reconcile: zone infrastructure: %w", err)
	}
	defer rows.Close()

	var infra []ZoneInfrastructure
	for rows.Next() {
		var zi ZoneInfrastructure
		if err := rows.Scan(&zi.ZoneID, &zi.Stores, &zi.Couriers); err != nil {
			return nil, fmt.Errorf("reconcile: scan zone infrastructure: %w", err)
		}
		infra = append(infra, zi)
	}
	return infra, rows.Err()
}

// MonthWindowFor resolves an optional YYYY-MM period key, defaulting to the
// month of now.
func MonthWindowFor(monthKey string, now time.Time) (int, time.Month, error) {
	if monthKey == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := shared.ParseMonth(monthKey)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}
