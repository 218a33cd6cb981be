package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"erpconsole/internal/apiclient"
	"erpconsole/internal/rbac"
	"erpconsole/internal/testutil"
	"erpconsole/internal/tokenstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T) (*API, *tokenstore.MemoryStore) {
	t.Helper()
	backend := testutil.NewBackend(t)
	store := tokenstore.NewMemoryStore()
	a := New(apiclient.New(backend.APIURL(), store))

	pair, err := a.Auth.Login(context.Background(), testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)
	require.NoError(t, store.SetAuthFromTokens(pair.AccessToken, pair.RefreshToken, pair.User.Profile()))
	return a, store
}

func TestLoginReturnsProfile(t *testing.T) {
	a, store := signedIn(t)
	assert.Equal(t, rbac.RoleAdmin, store.StoredUser().Role)

	me, err := a.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.AdminEmail, me.Email)
}

func TestCreateThenListRoundTrip(t *testing.T) {
	a, _ := signedIn(t)
	ctx := context.Background()

	in := CustomerInput{
		Name:            "Acme",
		Email:           "ops@acme.test",
		Phone:           "555-0100",
		BillingAddress:  "1 Main St",
		ShippingAddress: "2 Dock Rd",
		Currency:        "EUR",
	}
	created, err := a.Customers.Create(ctx, in)
	require.NoError(t, err)

	all, err := a.Customers.ListAll(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, in.Phone, got.Phone)
	assert.Equal(t, in.BillingAddress, got.BillingAddress)
	assert.Equal(t, in.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, in.Currency, got.Currency)
}

func seedOrder(t *testing.T, a *API) (*Customer, *Product, *Order) {
	t.Helper()
	ctx := context.Background()
	c, err := a.Customers.Create(ctx, CustomerInput{Name: "Acme"})
	require.NoError(t, err)
	p, err := a.Products.Create(ctx, ProductInput{SKU: "W-" + uuid.NewString()[:8], Name: "Widget", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	o, err := a.Orders.Create(ctx, OrderInput{
		CustomerID: c.ID,
		Lines:      []LineInput{{ProductID: &p.ID, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	return c, p, o
}

func TestDeleteOrderDecrementsTotal(t *testing.T) {
	a, _ := signedIn(t)
	ctx := context.Background()
	_, _, first := seedOrder(t, a)
	seedOrder(t, a)

	_, meta, err := a.Orders.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Equal(t, int64(2), meta.Total)

	require.NoError(t, a.Orders.Delete(ctx, first.ID))

	orders, meta, err := a.Orders.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.Total)
	for _, o := range orders {
		assert.NotEqual(t, first.ID, o.ID)
	}
}

func TestOrderInvoicePaymentFlow(t *testing.T) {
	a, _ := signedIn(t)
	ctx := context.Background()
	c, _, order := seedOrder(t, a)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(30)))

	order, err := a.Orders.Confirm(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", order.Status)

	inv, err := a.Invoices.Create(ctx, InvoiceInput{CustomerID: c.ID, OrderID: &order.ID})
	require.NoError(t, err)
	require.Len(t, inv.Lines, 1)

	inv, err = a.Invoices.Post(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "posted", inv.Status)

	pay, err := a.Payments.Create(ctx, PaymentInput{CustomerID: c.ID, Amount: decimal.NewFromInt(30), Method: "wire"})
	require.NoError(t, err)
	pay, err = a.Payments.Apply(ctx, pay.ID, ApplyInput{InvoiceID: inv.ID, AmountApplied: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.Equal(t, "applied", pay.Status)

	inv, err = a.Invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", inv.Status)
}

func TestBackendFieldErrorSurfaces(t *testing.T) {
	a, _ := signedIn(t)
	c, _, _ := seedOrder(t, a)

	_, err := a.Orders.Create(context.Background(), OrderInput{
		CustomerID: c.ID,
		Lines:      []LineInput{{ProductID: &c.ID, Quantity: decimal.NewFromInt(1)}},
	})
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	f, ok := apiErr.FirstFieldError()
	require.True(t, ok)
	assert.Equal(t, "body.lines.0.product_id", f.Path())
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	a, store := signedIn(t)
	refresh := store.RefreshToken()
	require.NoError(t, store.SetAuthFromTokens("expired", refresh, store.StoredUser()))

	_, _, err := a.Customers.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotEqual(t, "expired", store.AccessToken())
	assert.NotEqual(t, refresh, store.RefreshToken())
}

func TestUsersRequireManageUsers(t *testing.T) {
	a, store := signedIn(t)
	ctx := context.Background()
	_, err := a.Users.Create(ctx, UserInput{Email: "m@example.com", Password: "secret1", Role: "manager"})
	require.NoError(t, err)

	pair, err := a.Auth.Login(ctx, "m@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, store.SetAuthFromTokens(pair.AccessToken, pair.RefreshToken, pair.User.Profile()))

	_, _, err = a.Users.List(ctx, ListParams{})
	assert.True(t, apiclient.IsForbidden(err))

	logs, _, err := a.AuditLogs.List(ctx, AuditParams{Entity: "users"})
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestListAllPagesUntilShortPage(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)
		n := limit
		if offset >= 2*MaxPageSize {
			n = 3
		}
		items := make([]map[string]string, n)
		for i := range items {
			items[i] = map[string]string{"name": "c"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "status_code": 200, "data": items})
	}))
	defer srv.Close()

	a := New(apiclient.New(srv.URL, tokenstore.NewMemoryStore()))
	all, err := a.Customers.ListAll(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2*MaxPageSize+3)
	assert.Equal(t, []int{0, MaxPageSize, 2 * MaxPageSize}, offsets)
}
