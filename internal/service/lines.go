package service

import (
	"context"
	"strconv"

	"erpconsole/internal/model"
	"erpconsole/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is one order or invoice line as submitted by a client.
// UnitPrice falls back to the product's list price when omitted.
type LineInput struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
}

type pricedLine struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Amounts     model.LineAmounts
}

// priceLines validates lines, resolves products and computes totals.
func priceLines(ctx context.Context, products repository.ProductRepository, lines []LineInput, requireProduct bool) ([]pricedLine, model.Totals, error) {
	var totals model.Totals
	out := make([]pricedLine, 0, len(lines))

	for i, in := range lines {
		idx := strconv.Itoa(i)
		if !in.Quantity.IsPositive() {
			return nil, totals, fieldErr("must be greater than 0", "lines", idx, "quantity")
		}
		if in.TaxRate.IsNegative() {
			return nil, totals, fieldErr("must be greater than or equal to 0", "lines", idx, "tax_rate")
		}

		var price decimal.Decimal
		switch {
		case in.ProductID != nil && *in.ProductID != uuid.Nil:
			product, err := products.FindByID(ctx, *in.ProductID)
			if err != nil || product.IsDeleted {
				return nil, totals, fieldErr("invalid product "+in.ProductID.String(), "lines", idx, "product_id")
			}
			price = product.Price
			if in.Description == "" {
				in.Description = product.Name
			}
		case requireProduct:
			return nil, totals, fieldErr("field required", "lines", idx, "product_id")
		default:
			in.ProductID = nil
			if in.UnitPrice == nil {
				return nil, totals, fieldErr("field required", "lines", idx, "unit_price")
			}
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return nil, totals, fieldErr("must be greater than or equal to 0", "lines", idx, "unit_price")
			}
			price = *in.UnitPrice
		}

		amounts := model.ComputeLine(in.Quantity, price, in.TaxRate)
		totals.Add(amounts)
		out = append(out, pricedLine{
			ProductID:   in.ProductID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   price,
			TaxRate:     in.TaxRate,
			Amounts:     amounts,
		})
	}
	return out, totals, nil
}

func (l pricedLine) orderLine() model.OrderLine {
	return model.OrderLine{
		ProductID: *l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		TaxRate:   l.TaxRate,
		LineTotal: l.Amounts.Total.Round(2),
	}
}

func (l pricedLine) invoiceLine() model.InvoiceLine {
	return model.InvoiceLine{
		ProductID:   l.ProductID,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxRate:     l.TaxRate,
		LineTotal:   l.Amounts.Total.Round(2),
	}
}

func containsStatus(all []string, s string) bool {
	for _, v := range all {
		if v == s {
			return true
		}
	}
	return false
}
