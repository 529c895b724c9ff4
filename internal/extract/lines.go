package extract

import (
	"fmt"

	"ingest_orders/internal/domain/document"
	"ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
)

func (r *record) lineItems(items []document.LineItem, orderID int64) ([]rows.LineItem, error) {
	out := make([]rows.LineItem, 0, len(items))
	for i, li := range items {
		if li.ID == "" {
			return nil, fmt.Errorf("%w: lineItems[%d].id", ingest.ErrMissingField, i)
		}
		row := rows.LineItem{
			ID:                r.resolver.Mint(kindLineItem),
			OrderID:           orderID,
			Position:          i,
			LineItemRef:       li.ID.String(),
			ProductRef:        idPtr(li.ProductID),
			VariantRef:        idPtr(li.VariantID),
			SKU:               li.SKU,
			Title:             li.Title,
			Quantity:          li.Quantity,
			PricingQuantity:   li.PricingQuantity,
			UnitPrice:         li.UnitPrice,
			Reference:         li.Reference,
			ParentLineItemRef: idPtr(li.ParentLineItemID),
			GroupIdentifier:   li.GroupIdentifier,
			Weight:            li.Weight,
		}
		if li.References != nil {
			row.ReferenceLineItemGID = li.References.LineItemGID
		}
		if li.Amounts != nil {
			row.Subtotal = li.Amounts.Subtotal
			row.Discount = li.Amounts.Discount
			row.Total = li.Amounts.Total
		}
		r.out.Add(row)
		out = append(out, row)

		where := fmt.Sprintf("lineItems[%d]", i)
		if err := r.taxLines(li.TaxLines, rows.ParentLineItem, row.ID, where); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *record) shippingLines(lines []document.ShippingLine, orderID int64) ([]rows.ShippingLine, error) {
	out := make([]rows.ShippingLine, 0, len(lines))
	for i, sl := range lines {
		if sl.ID == "" {
			return nil, fmt.Errorf("%w: shippingLines[%d].id", ingest.ErrMissingField, i)
		}
		row := rows.ShippingLine{
			ID:              r.resolver.Mint(kindShippingLine),
			OrderID:         orderID,
			Position:        i,
			ShippingLineRef: sl.ID.String(),
			Name:            sl.Name,
			Handle:          sl.Handle,
			Reference:       sl.Reference,
			Amount:          sl.Amount,
			Currency:        sl.Currency,
		}
		r.out.Add(row)
		out = append(out, row)

		where := fmt.Sprintf("shippingLines[%d]", i)
		if err := r.taxLines(sl.TaxLines, rows.ParentShippingLine, row.ID, where); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// taxLines attaches each tax line to exactly one parent, named by parentType.
func (r *record) taxLines(lines []document.TaxLine, parentType string, parentID int64, where string) error {
	for i, tl := range lines {
		if tl.ID == "" {
			return fmt.Errorf("%w: %s.taxLines[%d].id", ingest.ErrMissingField, where, i)
		}
		r.out.Add(rows.TaxLine{
			ID:         r.resolver.Mint(kindTaxLine),
			ParentType: parentType,
			ParentID:   parentID,
			Position:   i,
			TaxLineRef: tl.ID.String(),
			Name:       tl.Name,
			Rate:       tl.Rate,
			RateType:   tl.RateType,
			Amount:     tl.Amount,
			Currency:   tl.Currency,
			Reference:  tl.Reference,
		})
	}
	return nil
}

func (r *record) charges(charges []document.Charge, orderID int64) error {
	for i, c := range charges {
		if c.ID == "" {
			return fmt.Errorf("%w: charges[%d].id", ingest.ErrMissingField, i)
		}
		r.out.Add(rows.Charge{
			ID:                            r.resolver.Mint(kindCharge),
			OrderID:                       orderID,
			Position:                      i,
			ChargeRef:                     c.ID.String(),
			Gateway:                       c.Gateway,
			GatewayReference:              c.GatewayReference,
			GatewayPaymentMethodReference: c.GatewayPaymentMethodReference,
			PaymentMethodRef:              idPtr(c.PaymentMethodID),
			Reference:                     c.Reference,
			Status:                        c.Status,
			Amount:                        c.Amount,
			Currency:                      c.Currency,
		})
	}
	return nil
}
