package rows

import "sort"

// Set accumulates rows per table, preserving insertion order within each table.
type Set struct {
	tables map[string][]Row
}

func NewSet() *Set {
	return &Set{tables: make(map[string][]Row)}
}

func (s *Set) Add(rs ...Row) {
	for _, r := range rs {
		s.tables[r.Table()] = append(s.tables[r.Table()], r)
	}
}

// Merge appends every row of other after the rows already held.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for table, rs := range other.tables {
		s.tables[table] = append(s.tables[table], rs...)
	}
}

func (s *Set) Rows(table string) []Row {
	return s.tables[table]
}

func (s *Set) Len(table string) int {
	return len(s.tables[table])
}

// Total is the number of rows across all tables.
func (s *Set) Total() int {
	n := 0
	for _, rs := range s.tables {
		n += len(rs)
	}
	return n
}

// Tables lists the non-empty tables in name order.
func (s *Set) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for name, rs := range s.tables {
		if len(rs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Set) Counts() map[string]int {
	counts := make(map[string]int, len(s.tables))
	for name, rs := range s.tables {
		counts[name] = len(rs)
	}
	return counts
}
