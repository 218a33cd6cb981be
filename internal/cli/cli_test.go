package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"erpconsole/internal/config"
	"erpconsole/internal/logger"
	"erpconsole/internal/querycache"
	"erpconsole/internal/testutil"
	"erpconsole/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	backend *testutil.Backend
	cfg     *config.Console
	store   *tokenstore.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := testutil.NewBackend(t)
	return &harness{
		backend: backend,
		cfg: &config.Console{
			APIURL:         backend.APIURL(),
			SessionBackend: "memory",
			PageSize:       10,
			HTTPTimeout:    5 * time.Second,
			Log:            logger.DefaultConfig(),
		},
		store: tokenstore.NewMemoryStore(),
	}
}

type result struct {
	out  string
	err  string
	code int
}

func (h *harness) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errw bytes.Buffer
	code := Execute(context.Background(), args, Options{
		Config: h.cfg,
		Store:  h.store,
		In:     strings.NewReader(stdin),
		Out:    &out,
		Err:    &errw,
	})
	return result{out: out.String(), err: errw.String(), code: code}
}

func (h *harness) loginAdmin(t *testing.T) {
	t.Helper()
	r := h.run(t, "", "login", "--email", testutil.AdminEmail, "--password", testutil.AdminPassword)
	require.Equal(t, 0, r.code, r.err)
}

// createdID pulls the id out of "Created <entity> <id>".
func createdID(t *testing.T, r result) string {
	t.Helper()
	require.Equal(t, 0, r.code, r.err)
	fields := strings.Fields(r.out)
	require.Len(t, fields, 3)
	return fields[2]
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)

	r := h.run(t, testutil.AdminPassword+"\n", "login", "--email", testutil.AdminEmail)
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, "Signed in as admin@example.com (admin)\n", r.out)
	assert.NotEmpty(t, h.store.AccessToken())
	assert.NotEmpty(t, h.store.RefreshToken())

	r = h.run(t, "", "whoami")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "Role:        admin")
	assert.Contains(t, r.out, "manage_users")
}

func TestLoginFailure(t *testing.T) {
	h := newHarness(t)
	r := h.run(t, "", "login", "--email", testutil.AdminEmail, "--password", "wrong")
	assert.Equal(t, 1, r.code)
	assert.True(t, strings.HasPrefix(r.err, "Error: "))
	assert.Empty(t, h.store.AccessToken())
}

func TestCommandsNeedASession(t *testing.T) {
	h := newHarness(t)
	r := h.run(t, "", "customers", "list")
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: "+ErrNotSignedIn.Error()+"\n", r.err)
}

func TestCustomerLifecycle(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)

	id := createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Acme", "email": "ops@acme.test"}`))
	createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Globex"}`))

	r := h.run(t, "", "customers", "list", "--search", "acme")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "ops@acme.test")
	assert.NotContains(t, r.out, "Globex")
	assert.Contains(t, r.out, "page 1 of 1, 1 total")

	r = h.run(t, "", "customers", "update", id, "--data", `{"name": "Acme Corp", "email": "ops@acme.test"}`)
	require.Equal(t, 0, r.code, r.err)

	r = h.run(t, "", "customers", "get", id)
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, `"name": "Acme Corp"`)

	r = h.run(t, "n\n", "customers", "delete", id)
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, "Cancelled\n", r.out)

	r = h.run(t, "y\n", "customers", "delete", id)
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, "Deleted customer "+id+"\n", r.out)

	r = h.run(t, "", "customers", "list", "--sort", "-name")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "page 1 of 1, 1 total")
}

func TestFormErrorsAreToasted(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)

	r := h.run(t, "", "customers", "create", "--data", `{"name": "Acme", "email": "nope"}`)
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: email: must be a valid email address\n", r.err)

	r = h.run(t, "", "customers", "create", "--data", `{"nmae": "Acme"}`)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.err, "invalid form")

	r = h.run(t, "", "customers", "get", "not-a-uuid")
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: invalid id \"not-a-uuid\"\n", r.err)
}

func TestOrderWithoutLinesNeverReachesTheBackend(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)
	customer := createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Acme"}`))

	r := h.run(t, "", "orders", "create", "--data", `{"customer_id": "`+customer+`", "lines": []}`)
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: lines: add at least one line item\n", r.err)

	r = h.run(t, "", "orders", "list")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "0 total")
}

func TestOrderTransitions(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)
	customer := createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Acme"}`))
	product := createdID(t, h.run(t, "", "products", "create", "--data", `{"sku": "W-1", "name": "Widget", "price": "12.50"}`))

	order := createdID(t, h.run(t, "", "orders", "create", "--data",
		`{"customer_id": "`+customer+`", "lines": [{"product_id": "`+product+`", "quantity": "2", "tax_rate": "0"}]}`))

	r := h.run(t, "", "orders", "confirm", order)
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, order+" is now confirmed\n", r.out)

	r = h.run(t, "", "orders", "list", "--filter", "confirmed")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "25.00")
	assert.Contains(t, r.out, "1 total")
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)
	createdID(t, h.run(t, "", "users", "create", "--data", `{"email": "m@example.com", "password": "secret1", "role": "manager"}`))
	createdID(t, h.run(t, "", "users", "create", "--data", `{"email": "s@example.com", "password": "secret1", "role": "staff"}`))

	r := h.run(t, "", "login", "--email", "m@example.com", "--password", "secret1")
	require.Equal(t, 0, r.code, r.err)
	r = h.run(t, "", "users", "list")
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: Access denied: the manager role cannot open Users\n", r.err)

	r = h.run(t, "", "audit", "--entity", "users")
	require.Equal(t, 0, r.code, r.err)
	assert.Contains(t, r.out, "CREATE")

	r = h.run(t, "", "login", "--email", "s@example.com", "--password", "secret1")
	require.Equal(t, 0, r.code, r.err)
	id := createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Acme"}`))
	r = h.run(t, "", "customers", "delete", id, "--yes")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.err, "Access denied")

	r = h.run(t, "", "export", "customers", "-o", filepath.Join(t.TempDir(), "c.xlsx"))
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Error: Access denied: the staff role cannot open Export\n", r.err)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)
	createdID(t, h.run(t, "", "customers", "create", "--data", `{"name": "Acme"}`))

	path := filepath.Join(t.TempDir(), "customers.xlsx")
	r := h.run(t, "", "export", "customers", "-o", path)
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, "Exported 1 rows to "+path+"\n", r.out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	r = h.run(t, "", "export", "widgets")
	assert.Equal(t, 1, r.code)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin(t)

	r := h.run(t, "", "logout")
	require.Equal(t, 0, r.code, r.err)
	assert.Equal(t, "Signed out\n", r.out)
	assert.Empty(t, h.store.AccessToken())
	assert.Nil(t, h.store.StoredUser())

	r = h.run(t, "", "whoami")
	assert.Equal(t, 1, r.code)
}

func TestIncludeDeletedListsAreCachedApart(t *testing.T) {
	plain := listFlags{}
	deleted := listFlags{includeDeleted: true}
	assert.NotEqual(t, plain.cacheKey("customers"), deleted.cacheKey("customers"))

	cache := querycache.New(0)
	_, err := querycache.Fetch(context.Background(), cache, plain.cacheKey("customers"), func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	n, err := querycache.Fetch(context.Background(), cache, deleted.cacheKey("customers"), func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cache.Invalidate(querycache.ListKey("customers"))
	assert.Zero(t, cache.Len())
}
