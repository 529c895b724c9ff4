// Package rows defines one flat row type per destination table. Values returns the
// tuple in catalog column order with nil standing for SQL NULL.
package rows

import (
	"time"

	"github.com/shopspring/decimal"

	"ingest_orders/internal/schema"
)

// Row is a single tuple destined for Table().
type Row interface {
	Table() string
	Values() []any
}

type Event struct {
	ID         int64
	EventRef   *string
	EventName  string
	OccurredAt *time.Time
	Source     *string
}

func (Event) Table() string { return schema.Events }

func (r Event) Values() []any {
	return []any{r.ID, nullable(r.EventRef), r.EventName, nullable(r.OccurredAt), nullable(r.Source)}
}

type Store struct {
	ID       int64
	StoreRef string
	Name     *string
	Domain   *string
}

func (Store) Table() string { return schema.Stores }

func (r Store) Values() []any {
	return []any{r.ID, r.StoreRef, nullable(r.Name), nullable(r.Domain)}
}

type Order struct {
	ID                 int64
	OrderRef           string
	EventID            int64
	StoreID            *int64
	ReferenceOrderGID  *string
	ReferenceOrderName *string
	PlacedAt           *time.Time
	Currency           *string
	Channel            *string
	Status             *string
	Subtotal           decimal.NullDecimal
	Discount           decimal.NullDecimal
	Total              decimal.NullDecimal
	Note               *string
	Source             *string
	SourceRef          *string
	Version            *int64
	Weight             *int64
	IsManual           *bool
	IsTest             *bool
	Risk               *string
	TaxIncluded        *bool
	DiscountCode       *string
	DiscountType       *string
	CustomerReference  *string
}

func (Order) Table() string { return schema.Orders }

func (r Order) Values() []any {
	return []any{
		r.ID, r.OrderRef, r.EventID, nullable(r.StoreID),
		nullable(r.ReferenceOrderGID), nullable(r.ReferenceOrderName), nullable(r.PlacedAt),
		nullable(r.Currency), nullable(r.Channel), nullable(r.Status),
		money(r.Subtotal), money(r.Discount), money(r.Total),
		nullable(r.Note), nullable(r.Source), nullable(r.SourceRef),
		nullable(r.Version), nullable(r.Weight), nullable(r.IsManual), nullable(r.IsTest),
		nullable(r.Risk), nullable(r.TaxIncluded), nullable(r.DiscountCode), nullable(r.DiscountType),
		nullable(r.CustomerReference),
	}
}

type LineItem struct {
	ID                   int64
	OrderID              int64
	Position             int
	LineItemRef          string
	ProductRef           *string
	VariantRef           *string
	SKU                  *string
	Title                *string
	Quantity             *int64
	PricingQuantity      *int64
	UnitPrice            decimal.NullDecimal
	Reference            *string
	ReferenceLineItemGID *string
	ParentLineItemRef    *string
	GroupIdentifier      *string
	Weight               *int64
	Subtotal             decimal.NullDecimal
	Discount             decimal.NullDecimal
	Total                decimal.NullDecimal
}

func (LineItem) Table() string { return schema.LineItems }

func (r LineItem) Values() []any {
	return []any{
		r.ID, r.OrderID, int64(r.Position), r.LineItemRef,
		nullable(r.ProductRef), nullable(r.VariantRef), nullable(r.SKU), nullable(r.Title),
		nullable(r.Quantity), nullable(r.PricingQuantity), money(r.UnitPrice),
		nullable(r.Reference), nullable(r.ReferenceLineItemGID), nullable(r.ParentLineItemRef),
		nullable(r.GroupIdentifier), nullable(r.Weight),
		money(r.Subtotal), money(r.Discount), money(r.Total),
	}
}

type Charge struct {
	ID                            int64
	OrderID                       int64
	Position                      int
	ChargeRef                     string
	Gateway                       *string
	GatewayReference              *string
	GatewayPaymentMethodReference *string
	PaymentMethodRef              *string
	Reference                     *string
	Status                        *string
	Amount                        decimal.NullDecimal
	Currency                      *string
}

func (Charge) Table() string { return schema.Charges }

func (r Charge) Values() []any {
	return []any{
		r.ID, r.OrderID, int64(r.Position), r.ChargeRef,
		nullable(r.Gateway), nullable(r.GatewayReference), nullable(r.GatewayPaymentMethodReference),
		nullable(r.PaymentMethodRef), nullable(r.Reference), nullable(r.Status),
		money(r.Amount), nullable(r.Currency),
	}
}

// Address roles.
const (
	RoleBilling  = "billing"
	RoleShipping = "shipping"
)

type Address struct {
	ID        int64
	OrderID   int64
	Role      string
	FirstName *string
	LastName  *string
	Company   *string
	Phone     *string
	Line1     *string
	Line2     *string
	Line3     *string
	City      *string
	County    *string
	Country   *string
	Postcode  *string
}

func (Address) Table() string { return schema.Addresses }

func (r Address) Values() []any {
	return []any{
		r.ID, r.OrderID, r.Role,
		nullable(r.FirstName), nullable(r.LastName), nullable(r.Company), nullable(r.Phone),
		nullable(r.Line1), nullable(r.Line2), nullable(r.Line3),
		nullable(r.City), nullable(r.County), nullable(r.Country), nullable(r.Postcode),
	}
}

type CustomerDetails struct {
	ID                int64
	OrderID           int64
	Email             *string
	FirstName         *string
	LastName          *string
	Phone             *string
	CustomerReference *string
}

func (CustomerDetails) Table() string { return schema.CustomerDetails }

func (r CustomerDetails) Values() []any {
	return []any{
		r.ID, r.OrderID, nullable(r.Email), nullable(r.FirstName), nullable(r.LastName),
		nullable(r.Phone), nullable(r.CustomerReference),
	}
}

type ShippingLine struct {
	ID              int64
	OrderID         int64
	Position        int
	ShippingLineRef string
	Name            *string
	Handle          *string
	Reference       *string
	Amount          decimal.NullDecimal
	Currency        *string
}

func (ShippingLine) Table() string { return schema.ShippingLines }

func (r ShippingLine) Values() []any {
	return []any{
		r.ID, r.OrderID, int64(r.Position), r.ShippingLineRef,
		nullable(r.Name), nullable(r.Handle), nullable(r.Reference), money(r.Amount), nullable(r.Currency),
	}
}

// Discriminator values for polymorphic references.
const (
	ParentLineItem     = "line_item"
	ParentShippingLine = "shipping_line"
	TargetVariant      = "variant"
)

type TaxLine struct {
	ID         int64
	ParentType string
	ParentID   int64
	Position   int
	TaxLineRef string
	Name       *string
	Rate       decimal.NullDecimal
	RateType   *string
	Amount     decimal.NullDecimal
	Currency   *string
	Reference  *string
}

func (TaxLine) Table() string { return schema.TaxLines }

func (r TaxLine) Values() []any {
	return []any{
		r.ID, r.ParentType, r.ParentID, int64(r.Position), r.TaxLineRef,
		nullable(r.Name), money(r.Rate), nullable(r.RateType), money(r.Amount),
		nullable(r.Currency), nullable(r.Reference),
	}
}

type DiscountCode struct {
	ID       int64
	Code     string
	OrderID  int64
	CodeType *string
	Amount   decimal.NullDecimal
}

func (DiscountCode) Table() string { return schema.DiscountCodes }

func (r DiscountCode) Values() []any {
	return []any{r.ID, r.Code, r.OrderID, nullable(r.CodeType), money(r.Amount)}
}

type AppliedDiscount struct {
	ID                 int64
	OrderID            int64
	DiscountCodeID     *int64
	Position           int
	AppliedDiscountRef string
	Amount             decimal.NullDecimal
	Code               *string
	Reference          *string
	Title              *string
	Value              decimal.NullDecimal
	ValueType          *string
}

func (AppliedDiscount) Table() string { return schema.AppliedDiscounts }

func (r AppliedDiscount) Values() []any {
	return []any{
		r.ID, r.OrderID, nullable(r.DiscountCodeID), int64(r.Position), r.AppliedDiscountRef,
		money(r.Amount), nullable(r.Code), nullable(r.Reference), nullable(r.Title),
		money(r.Value), nullable(r.ValueType),
	}
}

type AppliedDiscountTarget struct {
	ID                int64
	AppliedDiscountID int64
	Position          int
	TargetType        string
	TargetID          *int64
	VariantProductRef *string
	VariantVariantRef *string
	AllocatedAmount   decimal.NullDecimal
}

func (AppliedDiscountTarget) Table() string { return schema.AppliedDiscountTargets }

func (r AppliedDiscountTarget) Values() []any {
	return []any{
		r.ID, r.AppliedDiscountID, int64(r.Position), r.TargetType, nullable(r.TargetID),
		nullable(r.VariantProductRef), nullable(r.VariantVariantRef), money(r.AllocatedAmount),
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func money(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}
