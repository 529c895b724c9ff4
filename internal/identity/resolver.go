// Package identity owns every surrogate key handed out during a run and the
// natural-key bindings used to deduplicate shared entities.
package identity

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
)

// Kind names an entity family. Sequences and bindings are kept per kind.
type Kind string

type binding struct {
	kind Kind
	key  string
}

// Conflict reports a natural key seen again with different attributes. The first
// attributes win.
type Conflict struct {
	Kind       Kind
	NaturalKey string
	First      string
	Seen       string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %q: kept %s, ignored %s", c.Kind, c.NaturalKey, c.First, c.Seen)
}

// Checkpoint marks a point Rollback can return to.
type Checkpoint struct {
	journal      int
	fingerprints int
}

// Resolver is safe for concurrent use.
type Resolver struct {
	mu           sync.Mutex
	sequences    map[Kind]int64
	keys         map[binding]int64
	fingerprints map[binding]string
	journal      []binding
	// observed lists bindings in the order their first fingerprint was stored. A binding
	// made by an earlier record can get its first fingerprint from a later one.
	observed []binding
}

func NewResolver() *Resolver {
	return &Resolver{
		sequences:    make(map[Kind]int64),
		keys:         make(map[binding]int64),
		fingerprints: make(map[binding]string),
	}
}

// Mint returns the next surrogate key of kind. Keys start at 1 and are never reissued.
func (r *Resolver) Mint(kind Kind) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mint(kind)
}

func (r *Resolver) mint(kind Kind) int64 {
	r.sequences[kind]++
	return r.sequences[kind]
}

// Resolve returns the key bound to naturalKey, minting and binding a new one on first
// sight. created reports whether the key was minted by this call.
func (r *Resolver) Resolve(kind Kind, naturalKey string) (key int64, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := binding{kind: kind, key: naturalKey}
	if key, ok := r.keys[b]; ok {
		return key, false
	}
	key = r.mint(kind)
	r.keys[b] = key
	r.journal = append(r.journal, b)
	return key, true
}

// Observe records the attributes of a bound natural key. The first observation is
// kept; later ones with a different canonical form yield a Conflict.
func (r *Resolver) Observe(kind Kind, naturalKey string, attrs map[string]any) (*Conflict, error) {
	fp, err := fingerprint(attrs)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s %q: %w", kind, naturalKey, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := binding{kind: kind, key: naturalKey}
	first, ok := r.fingerprints[b]
	if !ok {
		r.fingerprints[b] = fp
		r.observed = append(r.observed, b)
		return nil, nil
	}
	if first == fp {
		return nil, nil
	}
	return &Conflict{Kind: kind, NaturalKey: naturalKey, First: first, Seen: fp}, nil
}

// Checkpoint captures the current bindings and observations.
func (r *Resolver) Checkpoint() Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Checkpoint{journal: len(r.journal), fingerprints: len(r.observed)}
}

// Rollback forgets every binding made and every first observation stored after cp.
// Sequences keep counting, so a key minted for a discarded record is never handed to
// another entity.
func (r *Resolver) Rollback(cp Checkpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.journal[cp.journal:] {
		delete(r.keys, b)
	}
	r.journal = r.journal[:cp.journal]

	for _, b := range r.observed[cp.fingerprints:] {
		delete(r.fingerprints, b)
	}
	r.observed = r.observed[:cp.fingerprints]
}

// fingerprint renders attrs as RFC 8785 canonical JSON so that key order and number
// formatting do not count as differences.
func fingerprint(attrs map[string]any) (string, error) {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	return string(canonical), nil
}
