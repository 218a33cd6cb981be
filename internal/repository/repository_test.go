package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"erpconsole/internal/database"
	"erpconsole/internal/logger"
	"erpconsole/internal/model"
	"erpconsole/internal/rbac"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Discard()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(sqlite.Open("file:repo_" + name + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	return db
}

func seedCustomer(t *testing.T, repo CustomerRepository, name string) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: name, Currency: "USD", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestCustomerListExcludesDeletedAndSearches(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(newTestDB(t))

	seedCustomer(t, repo, "Acme Corp")
	seedCustomer(t, repo, "Globex")
	gone := seedCustomer(t, repo, "Acme Old")
	gone.MarkDeleted(uuid.New(), time.Now())
	require.NoError(t, repo.Update(ctx, gone))

	items, total, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	_, total, err = repo.List(ctx, ListQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	items, total, err = repo.List(ctx, ListQuery{Search: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Acme Corp", items[0].Name)
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(newTestDB(t))
	for i := 0; i < 5; i++ {
		seedCustomer(t, repo, "c")
	}

	items, total, err := repo.List(ctx, ListQuery{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, items, 1)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetByEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	require.NoError(t, repo.Create(ctx, &model.User{Email: "ops@example.com", Password: "x", Role: rbac.RoleStaff, IsActive: true}))

	u, err := repo.GetByEmail(ctx, "OPS@example.com")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleStaff, u.Role)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRefreshTokenDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	tokens := NewRefreshTokenRepository(db)

	u := &model.User{Email: "a@example.com", Password: "x", Role: rbac.RoleViewer, IsActive: true}
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{UserID: u.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}))

	rt, err := tokens.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, u.Email, rt.User.Email)

	deleted, err := tokens.Delete(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = tokens.Delete(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestOrderReplaceLinesInTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	customers := NewCustomerRepository(db)
	products := NewProductRepository(db)
	orders := NewOrderRepository(db)
	tx := NewTransactionManager(db)

	c := seedCustomer(t, customers, "Acme")
	p := &model.Product{SKU: "SKU-1", Name: "Widget", Price: decimal.NewFromInt(10), Currency: "USD", IsActive: true}
	require.NoError(t, products.Create(ctx, p))

	order := &model.Order{
		CustomerID: c.ID,
		OrderDate:  time.Now(),
		Status:     model.OrderStatusDraft,
		Currency:   "USD",
		Lines: []model.OrderLine{
			{ProductID: p.ID, Quantity: decimal.NewFromInt(1), UnitPrice: p.Price, LineTotal: p.Price},
			{ProductID: p.ID, Quantity: decimal.NewFromInt(2), UnitPrice: p.Price, LineTotal: decimal.NewFromInt(20)},
		},
	}
	require.NoError(t, orders.Create(ctx, order))

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		return orders.ReplaceLines(txCtx, order.ID, []model.OrderLine{
			{ProductID: p.ID, Quantity: decimal.NewFromInt(3), UnitPrice: p.Price, LineTotal: decimal.NewFromInt(30)},
		})
	})
	require.NoError(t, err)

	got, err := orders.FindByIDWithLines(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].Quantity.Equal(decimal.NewFromInt(3)))
	require.NotNil(t, got.Customer)
	assert.Equal(t, "Acme", got.Customer.Name)
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	customers := NewCustomerRepository(db)
	tx := NewTransactionManager(db)

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, customers.Create(txCtx, &model.Customer{Name: "Temp", Currency: "USD", IsActive: true}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, total, err := customers.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAuditListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(newTestDB(t))
	id := uuid.New()
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreate, Entity: "orders", EntityID: id.String()}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionDelete, Entity: "orders", EntityID: id.String()}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreate, Entity: "customers", EntityID: uuid.NewString()}))

	_, total, err := repo.List(ctx, AuditFilter{Entity: "orders"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	logs, total, err := repo.List(ctx, AuditFilter{Entity: "orders", Action: model.ActionDelete})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, id.String(), logs[0].EntityID)
}

func TestStatusFilterUsesEntityColumn(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	customers := NewCustomerRepository(db)
	products := NewProductRepository(db)
	users := NewUserRepository(db)

	seedCustomer(t, customers, "Acme")
	require.NoError(t, customers.Create(ctx, &model.Customer{Name: "Dormant", Currency: "USD", IsActive: false}))
	require.NoError(t, products.Create(ctx, &model.Product{SKU: "W-1", Name: "Widget", Price: decimal.NewFromInt(1), Currency: "USD", IsActive: true}))
	require.NoError(t, users.Create(ctx, &model.User{Email: "a@example.com", Password: "x", Role: rbac.RoleAdmin, IsActive: true}))
	require.NoError(t, users.Create(ctx, &model.User{Email: "s@example.com", Password: "x", Role: rbac.RoleStaff, IsActive: true}))

	items, total, err := customers.List(ctx, ListQuery{Status: "inactive"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Dormant", items[0].Name)

	_, total, err = customers.List(ctx, ListQuery{Status: "Active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = customers.List(ctx, ListQuery{Status: "archived"})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = products.List(ctx, ListQuery{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	found, total, err := users.List(ctx, ListQuery{Status: "staff"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "s@example.com", found[0].Email)
}
