// Package extract flattens one decoded event into rows for every destination table.
package extract

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"ingest_orders/internal/domain/document"
	"ingest_orders/internal/domain/ingest"
	"ingest_orders/internal/domain/rows"
	"ingest_orders/internal/identity"
	"ingest_orders/internal/schema"
	"ingest_orders/pkg/logger"
)

// Identity kinds. Each table gets its own key sequence.
var (
	kindEvent                 = identity.Kind(schema.Events)
	kindStore                 = identity.Kind(schema.Stores)
	kindOrder                 = identity.Kind(schema.Orders)
	kindLineItem              = identity.Kind(schema.LineItems)
	kindCharge                = identity.Kind(schema.Charges)
	kindAddress               = identity.Kind(schema.Addresses)
	kindCustomerDetails       = identity.Kind(schema.CustomerDetails)
	kindShippingLine          = identity.Kind(schema.ShippingLines)
	kindTaxLine               = identity.Kind(schema.TaxLines)
	kindDiscountCode          = identity.Kind(schema.DiscountCodes)
	kindAppliedDiscount       = identity.Kind(schema.AppliedDiscounts)
	kindAppliedDiscountTarget = identity.Kind(schema.AppliedDiscountTargets)
)

// Extractor turns events into rows. Stores and discount codes are shared across
// events through the resolver; everything else is owned by a single event.
type Extractor struct {
	resolver *identity.Resolver
	log      logger.Logger

	mu        sync.Mutex
	conflicts []identity.Conflict
}

func NewExtractor(resolver *identity.Resolver, log logger.Logger) *Extractor {
	return &Extractor{resolver: resolver, log: log}
}

// Conflicts returns the natural-key conflicts seen in accepted records so far.
func (e *Extractor) Conflicts() []identity.Conflict {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]identity.Conflict(nil), e.conflicts...)
}

// Extract flattens ev, the index-th record of the document. On error the record
// contributes nothing: its rows are dropped, the natural keys it bound are released
// and a *ingest.SkippedRecordError is returned.
func (e *Extractor) Extract(index int, ev document.Event) (*rows.Set, error) {
	cp := e.resolver.Checkpoint()
	rec := &record{
		Extractor: e,
		index:     index,
		ref:       ev.Ref(index),
		out:       rows.NewSet(),
	}

	if err := rec.event(ev); err != nil {
		e.resolver.Rollback(cp)
		return nil, &ingest.SkippedRecordError{Index: index, EventRef: rec.ref, Err: err}
	}

	e.mu.Lock()
	e.conflicts = append(e.conflicts, rec.pending...)
	e.mu.Unlock()
	for _, c := range rec.pending {
		e.log.Warn("Natural key seen with different attributes, keeping first",
			logger.String("kind", string(c.Kind)),
			logger.String("key", c.NaturalKey),
			logger.String("kept", c.First),
			logger.String("ignored", c.Seen),
			logger.String("event", rec.ref),
		)
	}
	return rec.out, nil
}

// record carries the state of one Extract call.
type record struct {
	*Extractor
	index   int
	ref     string
	out     *rows.Set
	pending []identity.Conflict
}

func (r *record) warn(msg string, fields ...logger.Field) {
	fields = append(fields, logger.Int("record", r.index), logger.String("event", r.ref))
	r.log.Warn(msg, fields...)
}

func (r *record) observe(kind identity.Kind, key string, attrs map[string]any) error {
	c, err := r.resolver.Observe(kind, key, attrs)
	if err != nil {
		return err
	}
	if c != nil {
		r.pending = append(r.pending, *c)
	}
	return nil
}

func (r *record) event(ev document.Event) error {
	if strings.TrimSpace(ev.Name) == "" {
		return fmt.Errorf("%w: event_name", ingest.ErrMissingField)
	}
	if ev.Payload == nil {
		return fmt.Errorf("%w: event_payload", ingest.ErrMissingField)
	}
	if ev.Payload.Order == nil {
		return fmt.Errorf("%w: event_payload.order", ingest.ErrMissingField)
	}

	row := rows.Event{
		ID:        r.resolver.Mint(kindEvent),
		EventRef:  ev.ID.Ptr(),
		EventName: ev.Name,
		Source:    ev.Source,
	}
	if ev.Timestamp != nil {
		ts, ok := parseTimestamp(*ev.Timestamp)
		if !ok {
			r.warn("Unparseable event_timestamp, storing NULL", logger.String("value", *ev.Timestamp))
		}
		row.OccurredAt = ts
	}
	r.out.Add(row)

	var storeID *int64
	if ev.Payload.Store != nil {
		id, err := r.store(ev.Payload.Store)
		if err != nil {
			return err
		}
		storeID = &id
	}

	return r.order(ev.Payload.Order, row.ID, storeID)
}

func (r *record) store(s *document.Store) (int64, error) {
	if s.ID == "" {
		return 0, fmt.Errorf("%w: event_payload.store.id", ingest.ErrMissingField)
	}
	ref := s.ID.String()
	id, created := r.resolver.Resolve(kindStore, ref)
	if created {
		r.out.Add(rows.Store{ID: id, StoreRef: ref, Name: s.Name, Domain: s.Domain})
	}
	if err := r.observe(kindStore, ref, map[string]any{"name": s.Name, "domain": s.Domain}); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *record) order(o *document.Order, eventID int64, storeID *int64) error {
	if o.OrderID == "" {
		return fmt.Errorf("%w: order.orderId", ingest.ErrMissingField)
	}
	ref := o.OrderID.String()
	id, created := r.resolver.Resolve(kindOrder, ref)
	if !created {
		return fmt.Errorf("%w: orderId %q", ingest.ErrDuplicateOrder, ref)
	}

	row := rows.Order{
		ID:                id,
		OrderRef:          ref,
		EventID:           eventID,
		StoreID:           storeID,
		Currency:          o.Currency,
		Channel:           o.Channel,
		Status:            o.Status,
		Note:              o.Note,
		Source:            o.Source,
		Version:           o.Version,
		Weight:            o.Weight,
		IsManual:          o.IsManual,
		IsTest:            o.IsTest,
		Risk:              o.Risk,
		TaxIncluded:       o.TaxIncluded,
		DiscountCode:      o.DiscountCode,
		DiscountType:      o.DiscountType,
		SourceRef:         idPtr(o.SourceID),
		CustomerReference: idPtr(o.CustomerReference),
	}
	if o.Reference != nil {
		row.ReferenceOrderGID = o.Reference.OrderGID
		row.ReferenceOrderName = o.Reference.OrderName
	}
	if o.Amounts != nil {
		row.Subtotal = o.Amounts.Subtotal
		row.Discount = o.Amounts.Discount
		row.Total = o.Amounts.Total
	}
	if o.PlacedAt != nil {
		ts, ok := parseTimestamp(*o.PlacedAt)
		if !ok {
			r.warn("Unparseable placedAt, storing NULL", logger.String("order", ref), logger.String("value", *o.PlacedAt))
		}
		row.PlacedAt = ts
	}
	r.out.Add(row)

	r.customer(o, id)
	r.address(rows.RoleBilling, o.BillingDetails, id)
	r.address(rows.RoleShipping, o.ShippingDetails, id)

	lines, err := r.lineItems(o.LineItems, id)
	if err != nil {
		return err
	}
	shipping, err := r.shippingLines(o.ShippingLines, id)
	if err != nil {
		return err
	}
	if err := r.charges(o.Charges, id); err != nil {
		return err
	}
	if err := r.discountCodes(o.DiscountCodes, id); err != nil {
		return err
	}
	return r.appliedDiscounts(o.AppliedDiscounts, id, lines, shipping)
}

func (r *record) customer(o *document.Order, orderID int64) {
	c := o.CustomerDetails
	if c == nil {
		return
	}
	r.out.Add(rows.CustomerDetails{
		ID:                r.resolver.Mint(kindCustomerDetails),
		OrderID:           orderID,
		Email:             c.Email,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Phone:             c.Phone,
		CustomerReference: idPtr(o.CustomerReference),
	})
}

func (r *record) address(role string, d *document.ContactDetails, orderID int64) {
	if d == nil {
		return
	}
	row := rows.Address{
		ID:        r.resolver.Mint(kindAddress),
		OrderID:   orderID,
		Role:      role,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Company:   d.Company,
		Phone:     d.Phone,
	}
	if a := d.Address; a != nil {
		row.Line1, row.Line2, row.Line3 = a.Line1, a.Line2, a.Line3
		row.City, row.County, row.Country, row.Postcode = a.City, a.County, a.Country, a.Postcode
	}
	r.out.Add(row)
}

func idPtr(id *document.ID) *string {
	if id == nil {
		return nil
	}
	return id.Ptr()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp accepts RFC 3339 and the ISO 8601 variants seen in exports. Values
// without an offset are taken as UTC.
func parseTimestamp(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}
