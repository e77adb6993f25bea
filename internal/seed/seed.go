// Package seed creates and populates the sample source tables used to
// exercise the incremental pipeline end to end.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/golake/internal/logger"
	"github.com/dbsmedya/golake/internal/sqlutil"
)

// Seeder creates demo tables and fills them with sample rows.
type Seeder struct {
	db      *sqlx.DB
	dialect sqlutil.Dialect
	logger  *logger.Logger
	rand    *rand.Rand
}

// NewSeeder creates a seeder for the source connection.
func NewSeeder(db *sqlx.DB, dialect sqlutil.Dialect, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Seeder{
		db:      db,
		dialect: dialect,
		logger:  log,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var sampleCustomers = [][2]string{
	{"John Doe", "john.doe@email.com"},
	{"Jane Smith", "jane.smith@email.com"},
	{"Bob Johnson", "bob.johnson@email.com"},
	{"Alice Brown", "alice.brown@email.com"},
	{"Charlie Wilson", "charlie.wilson@email.com"},
	{"Diana Martinez", "diana.martinez@email.com"},
	{"Erik Anderson", "erik.anderson@email.com"},
	{"Fiona Taylor", "fiona.taylor@email.com"},
	{"George Davis", "george.davis@email.com"},
	{"Helen Garcia", "helen.garcia@email.com"},
}

type product struct {
	name  string
	price float64
}

var sampleProducts = []product{
	{"Laptop Pro", 1299.99},
	{"Smartphone X", 899.99},
	{"Tablet Air", 599.99},
	{"Wireless Mouse", 29.99},
	{"Mechanical Keyboard", 149.99},
	{"4K Monitor", 499.99},
	{"Wireless Headphones", 299.99},
	{"Smart Watch", 399.99},
	{"Phone Case", 19.99},
	{"USB Cable", 12.99},
}

const createCustomersMySQL = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(100) UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB;
`

const createOrdersMySQL = `
CREATE TABLE IF NOT EXISTS orders (
	order_id INT AUTO_INCREMENT PRIMARY KEY,
	customer_id INT,
	product_name VARCHAR(100) NOT NULL,
	quantity INT NOT NULL,
	price DECIMAL(10,2) NOT NULL,
	order_date DATE,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	FOREIGN KEY (customer_id) REFERENCES customers(customer_id)
) ENGINE=InnoDB;
`

const createCustomersPostgres = `
CREATE TABLE IF NOT EXISTS customers (
	customer_id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(100) UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const createOrdersPostgres = `
CREATE TABLE IF NOT EXISTS orders (
	order_id SERIAL PRIMARY KEY,
	customer_id INTEGER REFERENCES customers(customer_id),
	product_name VARCHAR(100) NOT NULL,
	quantity INTEGER NOT NULL,
	price DECIMAL(10,2) NOT NULL,
	order_date DATE DEFAULT CURRENT_DATE,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// CreateTables creates the demo customers and orders tables.
// Idempotent; safe to call on every seed.
func (s *Seeder) CreateTables(ctx context.Context) error {
	customers, orders := createCustomersMySQL, createOrdersMySQL
	if s.dialect == sqlutil.DialectPostgres {
		customers, orders = createCustomersPostgres, createOrdersPostgres
	}

	if _, err := s.db.ExecContext(ctx, customers); err != nil {
		return fmt.Errorf("failed to create customers table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, orders); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	s.logger.Info("Demo tables created")
	return nil
}

// Seed inserts sample customers and random orders. Existing customer emails
// are skipped, so reseeding does not duplicate customers.
func (s *Seeder) Seed(ctx context.Context, customerCount, orderCount int) (customers, orders int, err error) {
	if customerCount <= 0 || customerCount > len(sampleCustomers) {
		customerCount = len(sampleCustomers)
	}

	insertCustomer := "INSERT IGNORE INTO customers (name, email) VALUES (?, ?)"
	if s.dialect == sqlutil.DialectPostgres {
		insertCustomer = "INSERT INTO customers (name, email) VALUES (?, ?) ON CONFLICT (email) DO NOTHING"
	}
	insertCustomer = s.db.Rebind(insertCustomer)

	for i := 0; i < customerCount; i++ {
		res, err := s.db.ExecContext(ctx, insertCustomer, sampleCustomers[i][0], sampleCustomers[i][1])
		if err != nil {
			return customers, orders, fmt.Errorf("failed to insert customer %s: %w", sampleCustomers[i][0], err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			customers++
		}
	}
	s.logger.Infof("Inserted %d customers", customers)

	orders, err = s.insertOrders(ctx, orderCount, 90)
	if err != nil {
		return customers, orders, err
	}
	s.logger.Infof("Inserted %d orders", orders)

	return customers, orders, nil
}

// insertOrders inserts random orders against existing customers with order
// dates spread over the past maxAgeDays days.
func (s *Seeder) insertOrders(ctx context.Context, count, maxAgeDays int) (int, error) {
	var customerIDs []int64
	if err := s.db.SelectContext(ctx, &customerIDs, "SELECT customer_id FROM customers"); err != nil {
		return 0, fmt.Errorf("failed to list customer IDs: %w", err)
	}
	if len(customerIDs) == 0 {
		return 0, fmt.Errorf("no customers found, cannot insert orders")
	}

	insertOrder := s.db.Rebind(
		"INSERT INTO orders (customer_id, product_name, quantity, price, order_date) VALUES (?, ?, ?, ?, ?)")

	inserted := 0
	for i := 0; i < count; i++ {
		customerID := customerIDs[s.rand.Intn(len(customerIDs))]
		p := sampleProducts[s.rand.Intn(len(sampleProducts))]
		quantity := 1 + s.rand.Intn(3)
		// Small price variation around the list price
		price := p.price * (0.95 + 0.10*s.rand.Float64())
		orderDate := time.Now().AddDate(0, 0, -s.rand.Intn(maxAgeDays+1)).Format("2006-01-02")

		if _, err := s.db.ExecContext(ctx, insertOrder,
			customerID, p.name, quantity, fmt.Sprintf("%.2f", price), orderDate); err != nil {
			return inserted, fmt.Errorf("failed to insert order: %w", err)
		}
		inserted++
	}

	return inserted, nil
}
