// Package document holds the typed view of one source event record. Every optional
// field is a pointer or a decimal.NullDecimal so that "absent" and "zero" stay distinct.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ID is a source identifier that may arrive as a JSON string or a JSON number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Ptr returns nil for an empty id.
func (id ID) Ptr() *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}

type Event struct {
	ID        ID       `json:"event_id"`
	Name      string   `json:"event_name"`
	Timestamp *string  `json:"event_timestamp"`
	Source    *string  `json:"event_source"`
	Payload   *Payload `json:"event_payload"`
}

type Payload struct {
	Store *Store `json:"store"`
	Order *Order `json:"order"`
}

type Store struct {
	ID     ID      `json:"id"`
	Name   *string `json:"name"`
	Domain *string `json:"domain"`
}

type Order struct {
	OrderID           ID                `json:"orderId"`
	Reference         *OrderReference   `json:"reference"`
	PlacedAt          *string           `json:"placedAt"`
	Currency          *string           `json:"currency"`
	Channel           *string           `json:"channel"`
	Status            *string           `json:"status"`
	Amounts           *Amounts          `json:"amounts"`
	Note              *string           `json:"note"`
	Source            *string           `json:"source"`
	SourceID          *ID               `json:"sourceId"`
	Version           *int64            `json:"version"`
	Weight            *int64            `json:"weight"`
	IsManual          *bool             `json:"isManual"`
	IsTest            *bool             `json:"isTest"`
	Risk              *string           `json:"risk"`
	TaxIncluded       *bool             `json:"taxIncluded"`
	DiscountCode      *string           `json:"discountCode"`
	DiscountType      *string           `json:"discountType"`
	CustomerReference *ID               `json:"customerReference"`
	CustomerDetails   *CustomerDetails  `json:"customerDetails"`
	BillingDetails    *ContactDetails   `json:"billingDetails"`
	ShippingDetails   *ContactDetails   `json:"shippingDetails"`
	LineItems         []LineItem        `json:"lineItems"`
	ShippingLines     []ShippingLine    `json:"shippingLines"`
	Charges           []Charge          `json:"charges"`
	DiscountCodes     []DiscountCode    `json:"discountCodes"`
	AppliedDiscounts  []AppliedDiscount `json:"appliedDiscounts"`
}

type OrderReference struct {
	OrderGID  *string `json:"orderGid"`
	OrderName *string `json:"orderName"`
}

type Amounts struct {
	Subtotal decimal.NullDecimal `json:"subtotal"`
	Discount decimal.NullDecimal `json:"discount"`
	Total    decimal.NullDecimal `json:"total"`
}

type CustomerDetails struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type ContactDetails struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Company   *string  `json:"company"`
	Phone     *string  `json:"phone"`
	Address   *Address `json:"address"`
}

type Address struct {
	Line1    *string `json:"line1"`
	Line2    *string `json:"line2"`
	Line3    *string `json:"line3"`
	City     *string `json:"city"`
	County   *string `json:"county"`
	Country  *string `json:"country"`
	Postcode *string `json:"postcode"`
}

type LineItem struct {
	ID               ID                  `json:"id"`
	ProductID        *ID                 `json:"productId"`
	VariantID        *ID                 `json:"variantId"`
	SKU              *string             `json:"sku"`
	Title            *string             `json:"title"`
	Quantity         *int64              `json:"quantity"`
	PricingQuantity  *int64              `json:"pricingQuantity"`
	UnitPrice        decimal.NullDecimal `json:"unitPrice"`
	Reference        *string             `json:"reference"`
	References       *LineItemReferences `json:"references"`
	ParentLineItemID *ID                 `json:"parentLineItemId"`
	GroupIdentifier  *string             `json:"groupIdentifier"`
	Weight           *int64              `json:"weight"`
	Amounts          *Amounts            `json:"amounts"`
	TaxLines         []TaxLine           `json:"taxLines"`
}

type LineItemReferences struct {
	LineItemGID *string `json:"lineItemGid"`
}

type ShippingLine struct {
	ID        ID                  `json:"id"`
	Name      *string             `json:"name"`
	Handle    *string             `json:"handle"`
	Reference *string             `json:"reference"`
	Amount    decimal.NullDecimal `json:"amount"`
	Currency  *string             `json:"currency"`
	TaxLines  []TaxLine           `json:"taxLines"`
}

type TaxLine struct {
	ID        ID                  `json:"id"`
	Name      *string             `json:"name"`
	Rate      decimal.NullDecimal `json:"rate"`
	RateType  *string             `json:"rateType"`
	Amount    decimal.NullDecimal `json:"amount"`
	Currency  *string             `json:"currency"`
	Reference *string             `json:"reference"`
}

type Charge struct {
	ID                            ID                  `json:"id"`
	Gateway                       *string             `json:"gateway"`
	GatewayReference              *string             `json:"gatewayReference"`
	GatewayPaymentMethodReference *string             `json:"gatewayPaymentMethodReference"`
	PaymentMethodID               *ID                 `json:"paymentMethodId"`
	Reference                     *string             `json:"reference"`
	Status                        *string             `json:"status"`
	Amount                        decimal.NullDecimal `json:"amount"`
	Currency                      *string             `json:"currency"`
}

type DiscountCode struct {
	Code   string              `json:"code"`
	Type   *string             `json:"type"`
	Amount decimal.NullDecimal `json:"amount"`
}

type AppliedDiscount struct {
	ID        ID                  `json:"id"`
	Amount    decimal.NullDecimal `json:"amount"`
	Code      *string             `json:"code"`
	Reference *string             `json:"reference"`
	Title     *string             `json:"title"`
	Type      *string             `json:"type"`
	Value     decimal.NullDecimal `json:"value"`
	AppliesTo *AppliesTo          `json:"appliesTo"`
}

// Target types understood in AppliesTo.TargetType.
const (
	TargetVariant      = "variant"
	TargetShippingLine = "shipping_line"
)

type AppliesTo struct {
	TargetType string           `json:"targetType"`
	Target     *DiscountTargets `json:"target"`
}

type DiscountTargets struct {
	Variants      []VariantTarget      `json:"variants"`
	ShippingLines []ShippingLineTarget `json:"shippingLines"`
}

type VariantTarget struct {
	ProductID *ID                 `json:"productId"`
	VariantID *ID                 `json:"variantId"`
	Amount    decimal.NullDecimal `json:"amount"`
}

type ShippingLineTarget struct {
	ID     ID                  `json:"id"`
	Amount decimal.NullDecimal `json:"amount"`
}

// Ref identifies an event in logs and skip reports: the source event id when present,
// otherwise the event name and position.
func (e Event) Ref(index int) string {
	if e.ID != "" {
		return e.ID.String()
	}
	if e.Name != "" {
		return fmt.Sprintf("%s#%d", e.Name, index)
	}
	return fmt.Sprintf("#%d", index)
}
