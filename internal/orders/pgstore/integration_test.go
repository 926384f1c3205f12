package pgstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
	"github.com/ariefcatur/go-retail-api.git/internal/orders"
	"github.com/ariefcatur/go-retail-api.git/internal/orders/pgstore"
	"github.com/ariefcatur/go-retail-api.git/internal/products"
	"github.com/ariefcatur/go-retail-api.git/internal/users"
)

// IntegrationSuite runs the full placement workflow against a disposable
// Postgres container. Gated behind TEST_INTEGRATION because it needs Docker.
type IntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	svc       *orders.Service
}

func TestIntegrationSuite(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run container-backed tests")
	}
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = tcpostgres.Run(s.ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("retail_test"),
		tcpostgres.WithUsername("retail"),
		tcpostgres.WithPassword("retail"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	dsn, err := s.container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	migrationsDir, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)
	m, err := migrate.New("file://"+migrationsDir, dsn)
	s.Require().NoError(err)
	s.Require().NoError(m.Up())

	s.pool, err = pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)

	s.svc = orders.NewService(zap.NewNop(),
		&pgstore.TxManager{DB: s.pool},
		pgstore.NewLedger(),
		pgstore.NewStore(s.pool),
		&users.Repo{DB: s.pool},
		&products.Repo{DB: s.pool},
		audit.NopSink{})
}

func (s *IntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *IntegrationSuite) SetupTest() {
	for _, table := range []string{"order_lines", "orders", "payments", "products", "buyers"} {
		_, err := s.pool.Exec(s.ctx, "TRUNCATE "+table+" CASCADE")
		s.Require().NoError(err)
	}
}

func (s *IntegrationSuite) seedBuyer(name string) int64 {
	var id int64
	err := s.pool.QueryRow(s.ctx,
		`INSERT INTO buyers (name, email, password) VALUES ($1, $2, 'x') RETURNING buyer_id`,
		name, name+"@example.com").Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *IntegrationSuite) seedProduct(name, price string, stock int) int64 {
	var id int64
	err := s.pool.QueryRow(s.ctx,
		`INSERT INTO products (name, description, price, stock) VALUES ($1, '', $2, $3) RETURNING product_id`,
		name, price, stock).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *IntegrationSuite) dbStock(productID int64) int {
	var stock int
	err := s.pool.QueryRow(s.ctx,
		`SELECT stock FROM products WHERE product_id = $1`, productID).Scan(&stock)
	s.Require().NoError(err)
	return stock
}

func (s *IntegrationSuite) dbOrderCount() int {
	var n int
	err := s.pool.QueryRow(s.ctx, `SELECT count(*) FROM orders`).Scan(&n)
	s.Require().NoError(err)
	return n
}

func (s *IntegrationSuite) TestPlaceOrderPersistsAndDecrements() {
	buyer := s.seedBuyer("alice")
	product := s.seedProduct("keyboard", "5.00", 10)

	id, err := s.svc.PlaceOrder(s.ctx, orders.PlaceOrderRequest{
		BuyerID: buyer,
		Lines:   []orders.LineRequest{{ProductID: product, Quantity: 3}},
		Total:   decimal.RequireFromString("15.00"),
	})
	s.Require().NoError(err)

	s.Equal(7, s.dbStock(product))

	got, err := s.svc.GetOrder(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(orders.StatusPending, got.Status)
	s.Equal("alice", got.BuyerName)
	s.True(got.Total.Equal(decimal.RequireFromString("15.00")))
	s.Require().Len(got.Lines, 1)
	s.Equal(3, got.Lines[0].Quantity)
}

func (s *IntegrationSuite) TestInsufficientStockLeavesNothingBehind() {
	buyer := s.seedBuyer("alice")
	product := s.seedProduct("keyboard", "5.00", 2)

	_, err := s.svc.PlaceOrder(s.ctx, orders.PlaceOrderRequest{
		BuyerID: buyer,
		Lines:   []orders.LineRequest{{ProductID: product, Quantity: 5}},
		Total:   decimal.RequireFromString("25.00"),
	})
	var ins *orders.InsufficientStockError
	s.Require().ErrorAs(err, &ins)
	s.Equal(2, s.dbStock(product))
	s.Zero(s.dbOrderCount())
}

func (s *IntegrationSuite) TestCancelRestoresStockOnce() {
	buyer := s.seedBuyer("alice")
	product := s.seedProduct("keyboard", "5.00", 10)

	id, err := s.svc.PlaceOrder(s.ctx, orders.PlaceOrderRequest{
		BuyerID: buyer,
		Lines:   []orders.LineRequest{{ProductID: product, Quantity: 4}},
		Total:   decimal.RequireFromString("20.00"),
	})
	s.Require().NoError(err)
	s.Equal(6, s.dbStock(product))

	s.Require().NoError(s.svc.UpdateOrderStatus(s.ctx, id, orders.StatusCancelled))
	s.Equal(10, s.dbStock(product))

	s.Require().NoError(s.svc.UpdateOrderStatus(s.ctx, id, orders.StatusCancelled))
	s.Equal(10, s.dbStock(product))
}

func (s *IntegrationSuite) TestDuplicateEmailRejected() {
	repo := &users.Repo{DB: s.pool}
	_, err := repo.Create(s.ctx, "alice", "alice@example.com", "secret1")
	s.Require().NoError(err)

	_, err = repo.Create(s.ctx, "alice again", "alice@example.com", "secret2")
	s.Require().ErrorIs(err, users.ErrEmailExists)
}

func (s *IntegrationSuite) TestConcurrentPlacementNeverOversells() {
	const (
		stock   = 5
		callers = 15
	)
	buyer := s.seedBuyer("alice")
	product := s.seedProduct("keyboard", "2.00", stock)

	var (
		mu        sync.Mutex
		succeeded int
	)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			_, err := s.svc.PlaceOrder(s.ctx, orders.PlaceOrderRequest{
				BuyerID: buyer,
				Lines:   []orders.LineRequest{{ProductID: product, Quantity: 1}},
				Total:   decimal.RequireFromString("2.00"),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return nil
			}
			var ins *orders.InsufficientStockError
			if !errors.As(err, &ins) {
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(stock, succeeded)
	s.Equal(0, s.dbStock(product))
	s.Equal(stock, s.dbOrderCount())
}
