package views

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/querycache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingOrders struct {
	creates int
	updates int
	deletes int
	err     error
}

func (c *countingOrders) Create(ctx context.Context, in api.OrderInput) (*api.Order, error) {
	c.creates++
	if c.err != nil {
		return nil, c.err
	}
	return &api.Order{CustomerID: in.CustomerID, Status: "draft"}, nil
}

func (c *countingOrders) Update(ctx context.Context, id uuid.UUID, in api.OrderInput) (*api.Order, error) {
	c.updates++
	return &api.Order{Record: api.Record{ID: id}}, nil
}

func (c *countingOrders) Delete(ctx context.Context, id uuid.UUID) error {
	c.deletes++
	return c.err
}

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

func orderDialog(m *countingOrders, cache *querycache.Cache) *Dialog[api.Order, api.OrderInput, api.OrderInput] {
	return NewDialog[api.Order, api.OrderInput, api.OrderInput]("orders", m, cache, OrderRule, OrderRule)
}

func validLine() api.LineInput {
	pid := uuid.New()
	return api.LineInput{ProductID: &pid, Quantity: decimal.NewFromInt(1)}
}

func TestOrderWithoutLinesIsRejectedBeforeSending(t *testing.T) {
	m := &countingOrders{}
	d := orderDialog(m, querycache.New(0))

	_, err := d.Create(context.Background(), api.OrderInput{CustomerID: uuid.New()})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldMessage{{Field: "lines", Msg: "add at least one line item"}}, verr.Fields)
	assert.Equal(t, "lines: add at least one line item", Toast(err))
	assert.Zero(t, m.creates)
}

func TestDialogCollectsTagAndRuleErrors(t *testing.T) {
	m := &countingOrders{}
	d := orderDialog(m, querycache.New(0))

	bad := api.LineInput{Quantity: decimal.Zero}
	_, err := d.Create(context.Background(), api.OrderInput{Currency: "US", Lines: []api.LineInput{bad}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Msg
	}
	assert.Equal(t, "is required", fields["customer_id"])
	assert.Equal(t, "must be exactly 3 characters", fields["currency"])
	assert.Equal(t, "is required", fields["lines.0.product_id"])
	assert.Equal(t, "must be greater than 0", fields["lines.0.quantity"])
	assert.Zero(t, m.creates)
}

func TestDialogCreateInvalidatesList(t *testing.T) {
	ctx := context.Background()
	cache := querycache.New(0)
	loads := 0
	load := func(context.Context) ([]api.Order, error) {
		loads++
		return nil, nil
	}
	_, err := querycache.Fetch(ctx, cache, querycache.ListKey("orders"), load)
	require.NoError(t, err)

	m := &countingOrders{}
	_, err = orderDialog(m, cache).Create(ctx, api.OrderInput{CustomerID: uuid.New(), Lines: []api.LineInput{validLine()}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.creates)

	_, err = querycache.Fetch(ctx, cache, querycache.ListKey("orders"), load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestDialogUpdateDropsCachedItem(t *testing.T) {
	ctx := context.Background()
	cache := querycache.New(0)
	id := uuid.New()
	key := querycache.ItemKey("orders", id.String())
	_, err := querycache.Fetch(ctx, cache, key, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	m := &countingOrders{}
	_, err = orderDialog(m, cache).Update(ctx, id, api.OrderInput{CustomerID: uuid.New(), Lines: []api.LineInput{validLine()}})
	require.NoError(t, err)

	_, ok := cache.Peek(key)
	assert.False(t, ok)
	assert.Equal(t, 1, m.updates)
}

func TestInvoiceRule(t *testing.T) {
	orderID := uuid.New()
	assert.Empty(t, InvoiceRule(api.InvoiceInput{OrderID: &orderID}))
	assert.Equal(t, "lines", InvoiceRule(api.InvoiceInput{})[0].Field)

	price := decimal.NewFromInt(5)
	free := api.LineInput{Description: "Consulting", Quantity: decimal.NewFromInt(2), UnitPrice: &price}
	assert.Empty(t, InvoiceRule(api.InvoiceInput{Lines: []api.LineInput{free}}))

	free.UnitPrice = nil
	assert.Equal(t, "lines.0.unit_price", InvoiceRule(api.InvoiceInput{Lines: []api.LineInput{free}})[0].Field)
}

func TestAmountRules(t *testing.T) {
	assert.NotEmpty(t, PaymentRule(api.PaymentInput{}))
	assert.Empty(t, PaymentRule(api.PaymentInput{Amount: decimal.NewFromInt(1)}))
	assert.NotEmpty(t, ApplyRule(api.ApplyInput{AmountApplied: decimal.NewFromInt(-1)}))
	assert.NotEmpty(t, ProductRule(api.ProductInput{Price: decimal.NewFromInt(-1)}))
	assert.Empty(t, ProductRule(api.ProductInput{}))

	err := Validate(api.ProductInput{Name: "x"}, ProductRule)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sku", verr.Fields[0].Field)
}

func TestConfirmDelete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	m := &countingOrders{}
	ok, err := ConfirmDelete(ctx, answer(false), m, querycache.New(0), "orders", id, "order")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, m.deletes)

	ok, err = ConfirmDelete(ctx, answer(true), m, querycache.New(0), "orders", id, "order")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, m.deletes)

	m.err = &apiclient.APIError{Status: http.StatusForbidden, Message: "Forbidden"}
	ok, err = ConfirmDelete(ctx, answer(true), m, querycache.New(0), "orders", id, "order")
	assert.False(t, ok)
	assert.True(t, apiclient.IsForbidden(err))
}

func TestToast(t *testing.T) {
	fieldErr := &apiclient.APIError{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Fields:  []apiclient.FieldError{{Loc: []string{"body", "lines", "0", "product_id"}, Msg: "unknown product"}},
	}
	assert.Equal(t, "body.lines.0.product_id: unknown product", Toast(fieldErr))
	assert.Equal(t, "Conflict", Toast(&apiclient.APIError{Status: http.StatusConflict, Message: "Conflict"}))
	assert.Equal(t, "Something went wrong. Please try again.", Toast(errors.New("boom")))
}
