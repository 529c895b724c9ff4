// Package schema declares the relational layout that flattened order events are
// loaded into, and renders it as DDL for each supported destination.
package schema

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table names, in the form extractors and the writer refer to them.
const (
	Events                 = "events"
	Stores                 = "stores"
	Orders                 = "orders"
	LineItems              = "line_items"
	Charges                = "charges"
	Addresses              = "addresses"
	CustomerDetails        = "customer_details"
	ShippingLines          = "shipping_lines"
	TaxLines               = "tax_lines"
	DiscountCodes          = "discount_codes"
	AppliedDiscounts       = "applied_discounts"
	AppliedDiscountTargets = "applied_discount_targets"
)

type Type string

const (
	TypeInteger   Type = "integer"
	TypeText      Type = "text"
	TypeDecimal   Type = "decimal"
	TypeBoolean   Type = "boolean"
	TypeTimestamp Type = "timestamp"
)

type Column struct {
	Name     string `yaml:"name"`
	Type     Type   `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
}

type ForeignKey struct {
	Column           string `yaml:"column"`
	References       string `yaml:"references"`
	ReferencesColumn string `yaml:"references_column"`
}

// Check restricts a column to a fixed set of values.
type Check struct {
	Column string   `yaml:"column"`
	In     []string `yaml:"in"`
}

// Polymorphic is a foreign key whose target table is chosen by a discriminator column.
// Discriminator values missing from Targets must leave IDColumn NULL.
type Polymorphic struct {
	TypeColumn string            `yaml:"type_column"`
	IDColumn   string            `yaml:"id_column"`
	Targets    map[string]string `yaml:"targets"`
}

type Table struct {
	Name        string        `yaml:"name"`
	PrimaryKey  string        `yaml:"primary_key"`
	Columns     []Column      `yaml:"columns"`
	Unique      [][]string    `yaml:"unique"`
	ForeignKeys []ForeignKey  `yaml:"foreign_keys"`
	Checks      []Check       `yaml:"checks"`
	Polymorphic []Polymorphic `yaml:"polymorphic"`

	index map[string]int
}

type Catalog struct {
	Version int     `yaml:"version"`
	Tables  []Table `yaml:"tables"`

	byName map[string]*Table
	order  []string
}

//go:embed catalog.yaml
var catalogYAML []byte

var defaultCatalog = mustParse(catalogYAML)

// Default returns the embedded catalog.
func Default() *Catalog { return defaultCatalog }

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded catalog: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) init() error {
	if c.Version <= 0 {
		return fmt.Errorf("catalog version must be positive")
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("catalog declares no tables")
	}

	c.byName = make(map[string]*Table, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if _, dup := c.byName[t.Name]; dup {
			return fmt.Errorf("table %s declared twice", t.Name)
		}
		t.index = make(map[string]int, len(t.Columns))
		for j, col := range t.Columns {
			if _, dup := t.index[col.Name]; dup {
				return fmt.Errorf("%s.%s declared twice", t.Name, col.Name)
			}
			switch col.Type {
			case TypeInteger, TypeText, TypeDecimal, TypeBoolean, TypeTimestamp:
			default:
				return fmt.Errorf("%s.%s: unknown type %q", t.Name, col.Name, col.Type)
			}
			t.index[col.Name] = j
		}
		c.byName[t.Name] = t
	}

	for i := range c.Tables {
		if err := c.check(&c.Tables[i]); err != nil {
			return err
		}
	}

	order, err := c.sortByDependency()
	if err != nil {
		return err
	}
	c.order = order
	return nil
}

func (c *Catalog) check(t *Table) error {
	pk, ok := t.Column(t.PrimaryKey)
	if !ok {
		return fmt.Errorf("%s: primary key column %q not declared", t.Name, t.PrimaryKey)
	}
	if pk.Nullable {
		return fmt.Errorf("%s: primary key column %q is nullable", t.Name, t.PrimaryKey)
	}
	for _, cols := range t.Unique {
		for _, name := range cols {
			if _, ok := t.Column(name); !ok {
				return fmt.Errorf("%s: unique column %q not declared", t.Name, name)
			}
		}
	}
	for i := range t.ForeignKeys {
		fk := &t.ForeignKeys[i]
		if _, ok := t.Column(fk.Column); !ok {
			return fmt.Errorf("%s: foreign key column %q not declared", t.Name, fk.Column)
		}
		target, ok := c.byName[fk.References]
		if !ok {
			return fmt.Errorf("%s.%s references unknown table %q", t.Name, fk.Column, fk.References)
		}
		if fk.ReferencesColumn == "" {
			fk.ReferencesColumn = target.PrimaryKey
		}
		if _, ok := target.Column(fk.ReferencesColumn); !ok {
			return fmt.Errorf("%s.%s references unknown column %s.%s", t.Name, fk.Column, target.Name, fk.ReferencesColumn)
		}
	}
	for _, ck := range t.Checks {
		if _, ok := t.Column(ck.Column); !ok {
			return fmt.Errorf("%s: check column %q not declared", t.Name, ck.Column)
		}
		if len(ck.In) == 0 {
			return fmt.Errorf("%s: check on %q lists no values", t.Name, ck.Column)
		}
	}
	for _, p := range t.Polymorphic {
		if _, ok := t.Column(p.TypeColumn); !ok {
			return fmt.Errorf("%s: discriminator column %q not declared", t.Name, p.TypeColumn)
		}
		if _, ok := t.Column(p.IDColumn); !ok {
			return fmt.Errorf("%s: polymorphic id column %q not declared", t.Name, p.IDColumn)
		}
		for kind, target := range p.Targets {
			if _, ok := c.byName[target]; !ok {
				return fmt.Errorf("%s: %s=%s targets unknown table %q", t.Name, p.TypeColumn, kind, target)
			}
		}
	}
	return nil
}

// sortByDependency orders tables so every foreign key and polymorphic target comes
// before the table that references it. Ties keep declaration order.
func (c *Catalog) sortByDependency() ([]string, error) {
	position := make(map[string]int, len(c.Tables))
	for i, t := range c.Tables {
		position[t.Name] = i
	}

	indegree := make(map[string]int, len(c.Tables))
	dependents := make(map[string][]string, len(c.Tables))
	for _, t := range c.Tables {
		for _, parent := range t.Parents() {
			if parent == t.Name {
				continue
			}
			indegree[t.Name]++
			dependents[parent] = append(dependents[parent], t.Name)
		}
	}

	var ready []string
	for _, t := range c.Tables {
		if indegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}

	order := make([]string, 0, len(c.Tables))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, child := range dependents[name] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) != len(c.Tables) {
		return nil, fmt.Errorf("catalog has a foreign key cycle")
	}
	return order, nil
}

// Table looks a table up by name.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// InsertOrder lists table names parents first.
func (c *Catalog) InsertOrder() []string {
	return append([]string(nil), c.order...)
}

// DropOrder lists table names children first.
func (c *Catalog) DropOrder() []string {
	order := c.InsertOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// ColumnIndex returns the position of name in the row tuple, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Parents lists every table this one references, foreign keys first, then polymorphic
// targets in sorted order.
func (t *Table) Parents() []string {
	seen := make(map[string]bool)
	var parents []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			parents = append(parents, name)
		}
	}
	for _, fk := range t.ForeignKeys {
		add(fk.References)
	}
	for _, p := range t.Polymorphic {
		kinds := make([]string, 0, len(p.Targets))
		for kind := range p.Targets {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			add(p.Targets[kind])
		}
	}
	return parents
}

// keyed reports whether a column takes part in a key, index or check. MySQL needs
// a bounded type for those.
func (t *Table) keyed(name string) bool {
	if name == t.PrimaryKey {
		return true
	}
	for _, cols := range t.Unique {
		for _, c := range cols {
			if c == name {
				return true
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		if fk.Column == name {
			return true
		}
	}
	for _, ck := range t.Checks {
		if ck.Column == name {
			return true
		}
	}
	for _, p := range t.Polymorphic {
		if p.TypeColumn == name || p.IDColumn == name {
			return true
		}
	}
	return false
}
