package views

import (
	"strconv"
	"strings"
	"time"

	"erpconsole/internal/api"
	"erpconsole/internal/rbac"

	"github.com/shopspring/decimal"
)

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func byDecimal[T any](get func(T) decimal.Decimal) func(a, b T) bool {
	return func(a, b T) bool { return get(a).LessThan(get(b)) }
}

func byTime[T any](get func(T) time.Time) func(a, b T) bool {
	return func(a, b T) bool { return get(a).Before(get(b)) }
}

func customerName(c *api.Customer) string {
	if c == nil {
		return ""
	}
	return c.Name
}

// displayName is "First Last", or the email when both are empty.
func displayName(u api.User) string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

func CustomerTable() TableConfig[api.Customer] {
	return TableConfig[api.Customer]{
		Columns: []Column[api.Customer]{
			{Key: "name", Title: "NAME", Value: func(c api.Customer) string { return c.Name }},
			{Key: "email", Title: "EMAIL", Value: func(c api.Customer) string { return c.Email }},
			{Key: "phone", Title: "PHONE", Value: func(c api.Customer) string { return c.Phone }},
			{Key: "currency", Title: "CURRENCY", Value: func(c api.Customer) string { return c.Currency }},
			{Key: "status", Title: "STATUS", Value: func(c api.Customer) string { return activeLabel(c.IsActive) }},
			{Key: "id", Title: "ID", Value: func(c api.Customer) string { return c.ID.String() }},
		},
		Search:     func(c api.Customer) []string { return []string{c.Name, c.Email, c.Phone} },
		Category:   func(c api.Customer) string { return activeLabel(c.IsActive) },
		Categories: []string{"active", "inactive"},
	}
}

func ProductTable() TableConfig[api.Product] {
	return TableConfig[api.Product]{
		Columns: []Column[api.Product]{
			{Key: "sku", Title: "SKU", Value: func(p api.Product) string { return p.SKU }},
			{Key: "name", Title: "NAME", Value: func(p api.Product) string { return p.Name }},
			{Key: "price", Title: "PRICE", Value: func(p api.Product) string { return money(p.Price) },
				Less: byDecimal(func(p api.Product) decimal.Decimal { return p.Price })},
			{Key: "currency", Title: "CURRENCY", Value: func(p api.Product) string { return p.Currency }},
			{Key: "uom", Title: "UOM", Value: func(p api.Product) string { return p.UOM }},
			{Key: "status", Title: "STATUS", Value: func(p api.Product) string { return activeLabel(p.IsActive) }},
			{Key: "id", Title: "ID", Value: func(p api.Product) string { return p.ID.String() }},
		},
		Search:     func(p api.Product) []string { return []string{p.SKU, p.Name, p.Description} },
		Category:   func(p api.Product) string { return activeLabel(p.IsActive) },
		Categories: []string{"active", "inactive"},
	}
}

func OrderTable() TableConfig[api.Order] {
	return TableConfig[api.Order]{
		Columns: []Column[api.Order]{
			{Key: "date", Title: "DATE", Value: func(o api.Order) string { return date(o.OrderDate) },
				Less: byTime(func(o api.Order) time.Time { return o.OrderDate })},
			{Key: "customer", Title: "CUSTOMER", Value: func(o api.Order) string { return customerName(o.Customer) }},
			{Key: "status", Title: "STATUS", Value: func(o api.Order) string { return o.Status }},
			{Key: "lines", Title: "LINES", Value: func(o api.Order) string { return strconv.Itoa(len(o.Lines)) },
				Less: func(a, b api.Order) bool { return len(a.Lines) < len(b.Lines) }},
			{Key: "total", Title: "TOTAL", Value: func(o api.Order) string { return money(o.Total) },
				Less: byDecimal(func(o api.Order) decimal.Decimal { return o.Total })},
			{Key: "id", Title: "ID", Value: func(o api.Order) string { return o.ID.String() }},
		},
		Search:     func(o api.Order) []string { return []string{o.ID.String(), customerName(o.Customer), o.Notes} },
		Category:   func(o api.Order) string { return o.Status },
		Categories: []string{"draft", "confirmed", "fulfilled", "closed"},
	}
}

func InvoiceTable() TableConfig[api.Invoice] {
	return TableConfig[api.Invoice]{
		Columns: []Column[api.Invoice]{
			{Key: "date", Title: "DATE", Value: func(i api.Invoice) string { return date(i.InvoiceDate) },
				Less: byTime(func(i api.Invoice) time.Time { return i.InvoiceDate })},
			{Key: "customer", Title: "CUSTOMER", Value: func(i api.Invoice) string { return customerName(i.Customer) }},
			{Key: "status", Title: "STATUS", Value: func(i api.Invoice) string { return i.Status }},
			{Key: "total", Title: "TOTAL", Value: func(i api.Invoice) string { return money(i.Total) },
				Less: byDecimal(func(i api.Invoice) decimal.Decimal { return i.Total })},
			{Key: "paid", Title: "PAID", Value: func(i api.Invoice) string { return money(i.AmountPaid) },
				Less: byDecimal(func(i api.Invoice) decimal.Decimal { return i.AmountPaid })},
			{Key: "id", Title: "ID", Value: func(i api.Invoice) string { return i.ID.String() }},
		},
		Search:     func(i api.Invoice) []string { return []string{i.ID.String(), customerName(i.Customer), i.Notes} },
		Category:   func(i api.Invoice) string { return i.Status },
		Categories: []string{"draft", "posted", "paid", "written_off"},
	}
}

func PaymentTable() TableConfig[api.Payment] {
	return TableConfig[api.Payment]{
		Columns: []Column[api.Payment]{
			{Key: "date", Title: "RECEIVED", Value: func(p api.Payment) string { return date(p.ReceivedDate) },
				Less: byTime(func(p api.Payment) time.Time { return p.ReceivedDate })},
			{Key: "amount", Title: "AMOUNT", Value: func(p api.Payment) string { return money(p.Amount) },
				Less: byDecimal(func(p api.Payment) decimal.Decimal { return p.Amount })},
			{Key: "currency", Title: "CURRENCY", Value: func(p api.Payment) string { return p.Currency }},
			{Key: "method", Title: "METHOD", Value: func(p api.Payment) string { return p.Method }},
			{Key: "status", Title: "STATUS", Value: func(p api.Payment) string { return p.Status }},
			{Key: "id", Title: "ID", Value: func(p api.Payment) string { return p.ID.String() }},
		},
		Search:     func(p api.Payment) []string { return []string{p.ID.String(), p.Method, p.Note} },
		Category:   func(p api.Payment) string { return p.Status },
		Categories: []string{"received", "applied", "failed"},
	}
}

func UserTable() TableConfig[api.User] {
	return TableConfig[api.User]{
		Columns: []Column[api.User]{
			{Key: "email", Title: "EMAIL", Value: func(u api.User) string { return u.Email }},
			{Key: "name", Title: "NAME", Value: displayName},
			{Key: "role", Title: "ROLE", Value: func(u api.User) string { return string(u.Role) },
				Less: func(a, b api.User) bool { return a.Role.Level() < b.Role.Level() }},
			{Key: "status", Title: "STATUS", Value: func(u api.User) string { return activeLabel(u.IsActive) }},
			{Key: "id", Title: "ID", Value: func(u api.User) string { return u.ID.String() }},
		},
		Search:   func(u api.User) []string { return []string{u.Email, u.FirstName, u.LastName} },
		Category: func(u api.User) string { return string(u.Role) },
		Categories: []string{
			string(rbac.RoleAdmin), string(rbac.RoleManager), string(rbac.RoleStaff), string(rbac.RoleViewer),
		},
	}
}

func AuditTable() TableConfig[api.AuditLog] {
	return TableConfig[api.AuditLog]{
		Columns: []Column[api.AuditLog]{
			{Key: "at", Title: "AT", Value: func(l api.AuditLog) string { return l.CreatedAt }},
			{Key: "action", Title: "ACTION", Value: func(l api.AuditLog) string { return l.Action }},
			{Key: "entity", Title: "ENTITY", Value: func(l api.AuditLog) string { return l.Entity }},
			{Key: "entity_id", Title: "ENTITY ID", Value: func(l api.AuditLog) string { return l.EntityID }},
			{Key: "user", Title: "USER", Value: func(l api.AuditLog) string { return l.UserID }},
			{Key: "details", Title: "DETAILS", Value: func(l api.AuditLog) string { return l.Details }},
		},
		Search:     func(l api.AuditLog) []string { return []string{l.Entity, l.EntityID, l.Details} },
		Category:   func(l api.AuditLog) string { return l.Action },
		Categories: []string{"CREATE", "UPDATE", "DELETE", "STATUS", "APPLY", "LOGIN"},
	}
}

// Form rules.

func lineRules(lines []api.LineInput, requireProduct bool) []FieldMessage {
	var out []FieldMessage
	for i, l := range lines {
		prefix := "lines." + strconv.Itoa(i) + "."
		if requireProduct && l.ProductID == nil {
			out = append(out, FieldMessage{Field: prefix + "product_id", Msg: "is required"})
		}
		if !requireProduct && l.ProductID == nil && l.UnitPrice == nil {
			out = append(out, FieldMessage{Field: prefix + "unit_price", Msg: "is required without a product"})
		}
		if !l.Quantity.IsPositive() {
			out = append(out, FieldMessage{Field: prefix + "quantity", Msg: "must be greater than 0"})
		}
		if l.TaxRate.IsNegative() {
			out = append(out, FieldMessage{Field: prefix + "tax_rate", Msg: "must not be negative"})
		}
	}
	return out
}

// OrderRule requires at least one line, each with a product and a positive quantity.
func OrderRule(in api.OrderInput) []FieldMessage {
	if len(in.Lines) == 0 {
		return []FieldMessage{{Field: "lines", Msg: "add at least one line item"}}
	}
	return lineRules(in.Lines, true)
}

// InvoiceRule requires lines unless the invoice copies them from an order.
func InvoiceRule(in api.InvoiceInput) []FieldMessage {
	if in.OrderID == nil && len(in.Lines) == 0 {
		return []FieldMessage{{Field: "lines", Msg: "add at least one line item or choose an order"}}
	}
	out := lineRules(in.Lines, false)
	if in.TaxTotal != nil && in.TaxTotal.IsNegative() {
		out = append(out, FieldMessage{Field: "tax_total", Msg: "must not be negative"})
	}
	return out
}

func ProductRule(in api.ProductInput) []FieldMessage {
	if in.Price.IsNegative() {
		return []FieldMessage{{Field: "price", Msg: "must not be negative"}}
	}
	return nil
}

func PaymentRule(in api.PaymentInput) []FieldMessage {
	if !in.Amount.IsPositive() {
		return []FieldMessage{{Field: "amount", Msg: "must be greater than 0"}}
	}
	return nil
}

// ApplyRule checks an allocation before it is sent.
func ApplyRule(in api.ApplyInput) []FieldMessage {
	if !in.AmountApplied.IsPositive() {
		return []FieldMessage{{Field: "amount_applied", Msg: "must be greater than 0"}}
	}
	return nil
}

// Validate runs the struct tags and rule over payload without submitting it.
func Validate[P any](payload P, rule Rule[P]) error {
	return check(payload, rule)
}
