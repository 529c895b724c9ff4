package extract

import (
	"fmt"
	"strings"

	"ingest_orders/internal/domain/document"
	"ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
	"ingest_orders/pkg/logger"
)

// discountCodes registers the order's codes. A code is stored once per run and
// belongs to the first order that introduced it.
func (r *record) discountCodes(codes []document.DiscountCode, orderID int64) error {
	for i, dc := range codes {
		code := strings.TrimSpace(dc.Code)
		if code == "" {
			return fmt.Errorf("%w: discountCodes[%d].code", ingest.ErrMissingField, i)
		}
		id, created := r.resolver.Resolve(kindDiscountCode, code)
		if created {
			r.out.Add(rows.DiscountCode{
				ID:       id,
				Code:     code,
				OrderID:  orderID,
				CodeType: dc.Type,
				Amount:   dc.Amount,
			})
		}
		if err := r.observe(kindDiscountCode, code, map[string]any{"type": dc.Type, "amount": dc.Amount}); err != nil {
			return err
		}
	}
	return nil
}

// discountCodeID returns the key of code, minting a bare discount_codes row when the
// code was only ever seen on an applied discount.
func (r *record) discountCodeID(code *string, orderID int64) *int64 {
	if code == nil || strings.TrimSpace(*code) == "" {
		return nil
	}
	c := strings.TrimSpace(*code)
	id, created := r.resolver.Resolve(kindDiscountCode, c)
	if created {
		r.out.Add(rows.DiscountCode{ID: id, Code: c, OrderID: orderID})
	}
	return &id
}

func (r *record) appliedDiscounts(discounts []document.AppliedDiscount, orderID int64, lines []rows.LineItem, shipping []rows.ShippingLine) error {
	for i, ad := range discounts {
		if ad.ID == "" {
			return fmt.Errorf("%w: appliedDiscounts[%d].id", ingest.ErrMissingField, i)
		}
		row := rows.AppliedDiscount{
			ID:                 r.resolver.Mint(kindAppliedDiscount),
			OrderID:            orderID,
			DiscountCodeID:     r.discountCodeID(ad.Code, orderID),
			Position:           i,
			AppliedDiscountRef: ad.ID.String(),
			Amount:             ad.Amount,
			Code:               ad.Code,
			Reference:          ad.Reference,
			Title:              ad.Title,
			Value:              ad.Value,
			ValueType:          ad.Type,
		}
		r.out.Add(row)

		if ad.AppliesTo == nil {
			continue
		}
		where := fmt.Sprintf("appliedDiscounts[%d]", i)
		if err := r.targets(ad.AppliesTo, row.ID, where, lines, shipping); err != nil {
			return err
		}
	}
	return nil
}

// targets resolves what an applied discount applies to. Variants map to every line
// item of the order carrying that variant; a variant with no such line item is kept
// with a NULL target. Shipping line targets must name a shipping line of the order.
func (r *record) targets(a *document.AppliesTo, appliedID int64, where string, lines []rows.LineItem, shipping []rows.ShippingLine) error {
	if a.Target == nil {
		return nil
	}

	position := 0
	add := func(row rows.AppliedDiscountTarget) {
		row.ID = r.resolver.Mint(kindAppliedDiscountTarget)
		row.AppliedDiscountID = appliedID
		row.Position = position
		position++
		r.out.Add(row)
	}

	switch a.TargetType {
	case document.TargetVariant:
		for _, v := range a.Target.Variants {
			product, variant := idPtr(v.ProductID), idPtr(v.VariantID)
			matched := false
			for _, li := range lines {
				if !sameRef(li.VariantRef, variant) || (product != nil && !sameRef(li.ProductRef, product)) {
					continue
				}
				id := li.ID
				add(rows.AppliedDiscountTarget{
					TargetType:        rows.ParentLineItem,
					TargetID:          &id,
					VariantProductRef: product,
					VariantVariantRef: variant,
					AllocatedAmount:   v.Amount,
				})
				matched = true
			}
			if !matched {
				add(rows.AppliedDiscountTarget{
					TargetType:        rows.TargetVariant,
					VariantProductRef: product,
					VariantVariantRef: variant,
					AllocatedAmount:   v.Amount,
				})
			}
		}

	case document.TargetShippingLine:
		for j, s := range a.Target.ShippingLines {
			var target *int64
			for _, sl := range shipping {
				if sl.ShippingLineRef == s.ID.String() {
					id := sl.ID
					target = &id
					break
				}
			}
			if target == nil {
				return fmt.Errorf("%w: %s.appliesTo.target.shippingLines[%d] names unknown shipping line %q",
					ingest.ErrDanglingParent, where, j, s.ID)
			}
			add(rows.AppliedDiscountTarget{
				TargetType:      rows.ParentShippingLine,
				TargetID:        target,
				AllocatedAmount: s.Amount,
			})
		}

	default:
		r.warn("Unknown discount target type, no targets recorded",
			logger.String("where", where), logger.String("target_type", a.TargetType))
	}
	return nil
}

// sameRef reports whether want is set and equal to got.
func sameRef(got, want *string) bool {
	return got != nil && want != nil && *got == *want
}
