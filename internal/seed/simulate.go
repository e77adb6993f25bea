package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/dbsmedya/golake/internal/sqlutil"
)

// SimulationResult counts the changes produced by one simulation pass.
type SimulationResult struct {
	CustomersAdded   int
	CustomersUpdated int
	OrdersAdded      int
	OrdersUpdated    int
}

var simulationCustomers = [][2]string{
	{"Michael Zhang", "michael.zhang@email.com"},
	{"Sarah Wilson", "sarah.wilson@email.com"},
	{"David Kim", "david.kim@email.com"},
	{"Emma Johnson", "emma.johnson@email.com"},
	{"Ryan Chen", "ryan.chen@email.com"},
	{"Lisa Anderson", "lisa.anderson@email.com"},
	{"Alex Rodriguez", "alex.rodriguez@email.com"},
	{"Maya Patel", "maya.patel@email.com"},
	{"James Miller", "james.miller@email.com"},
	{"Sophia Davis", "sophia.davis@email.com"},
}

// Simulate produces a round of incremental changes: new customers, updated
// customer profiles, new orders, and updated recent orders. Each change bumps
// a timestamp column, so a following run picks it up.
func (s *Seeder) Simulate(ctx context.Context, newCustomers, updatedCustomers, newOrders, updatedOrders int) (*SimulationResult, error) {
	result := &SimulationResult{}

	added, err := s.addCustomers(ctx, newCustomers)
	if err != nil {
		return result, err
	}
	result.CustomersAdded = added
	s.logger.Infof("Added %d new customers", added)

	updated, err := s.updateCustomers(ctx, updatedCustomers)
	if err != nil {
		return result, err
	}
	result.CustomersUpdated = updated
	s.logger.Infof("Updated %d existing customers", updated)

	// New orders land in the last few days so they fall inside any
	// reasonable incremental window.
	orders, err := s.insertOrders(ctx, newOrders, 3)
	if err != nil {
		return result, err
	}
	result.OrdersAdded = orders
	s.logger.Infof("Added %d new orders", orders)

	touched, err := s.updateOrders(ctx, updatedOrders)
	if err != nil {
		return result, err
	}
	result.OrdersUpdated = touched
	s.logger.Infof("Updated %d existing orders", touched)

	return result, nil
}

// addCustomers inserts fresh customers, skipping emails that already exist.
func (s *Seeder) addCustomers(ctx context.Context, count int) (int, error) {
	if count <= 0 || count > len(simulationCustomers) {
		count = len(simulationCustomers)
	}

	insert := "INSERT IGNORE INTO customers (name, email) VALUES (?, ?)"
	if s.dialect == sqlutil.DialectPostgres {
		insert = "INSERT INTO customers (name, email) VALUES (?, ?) ON CONFLICT (email) DO NOTHING"
	}
	insert = s.db.Rebind(insert)

	added := 0
	for i := 0; i < count; i++ {
		res, err := s.db.ExecContext(ctx, insert, simulationCustomers[i][0], simulationCustomers[i][1])
		if err != nil {
			return added, fmt.Errorf("failed to add customer %s: %w", simulationCustomers[i][0], err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

type customerRow struct {
	ID    int64  `db:"customer_id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// updateCustomers renames random existing customers, which bumps updated_at.
func (s *Seeder) updateCustomers(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	query := s.db.Rebind(fmt.Sprintf(
		"SELECT customer_id, name, email FROM customers ORDER BY %s LIMIT ?", s.randomFunc()))
	var customers []customerRow
	if err := s.db.SelectContext(ctx, &customers, query, count); err != nil {
		return 0, fmt.Errorf("failed to pick customers to update: %w", err)
	}

	update := s.db.Rebind(
		"UPDATE customers SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE customer_id = ?")

	updated := 0
	for _, c := range customers {
		res, err := s.db.ExecContext(ctx, update, c.Name+" (Updated)", c.ID)
		if err != nil {
			return updated, fmt.Errorf("failed to update customer %d: %w", c.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			updated++
		}
	}
	return updated, nil
}

type orderRow struct {
	ID       int64   `db:"order_id"`
	Quantity int     `db:"quantity"`
	Price    float64 `db:"price"`
}

// updateOrders tweaks quantity and price on random orders from the last week,
// which bumps updated_at.
func (s *Seeder) updateOrders(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT order_id, quantity, price FROM orders WHERE order_date >= ? ORDER BY %s LIMIT ?",
		s.randomFunc()))
	var orders []orderRow
	if err := s.db.SelectContext(ctx, &orders, query, cutoff, count); err != nil {
		return 0, fmt.Errorf("failed to pick orders to update: %w", err)
	}

	update := s.db.Rebind(
		"UPDATE orders SET quantity = ?, price = ?, updated_at = CURRENT_TIMESTAMP WHERE order_id = ?")

	updated := 0
	for _, o := range orders {
		quantity := o.Quantity + s.rand.Intn(4) - 1
		if quantity < 1 {
			quantity = 1
		}
		price := o.Price * (0.90 + 0.20*s.rand.Float64())

		res, err := s.db.ExecContext(ctx, update, quantity, fmt.Sprintf("%.2f", price), o.ID)
		if err != nil {
			return updated, fmt.Errorf("failed to update order %d: %w", o.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			updated++
		}
	}
	return updated, nil
}

// randomFunc returns the dialect's random ordering function.
func (s *Seeder) randomFunc() string {
	if s.dialect == sqlutil.DialectPostgres {
		return "RANDOM()"
	}
	return "RAND()"
}
