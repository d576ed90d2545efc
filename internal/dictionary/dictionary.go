// Package dictionary assigns compact, order-comparable identifiers to terms.
//
// Numbers live in category 0; text terms are bucketed by their length in
// characters, so every text category holds strings of one length. Inside a
// category the position of a term is its rank in ascending order. Inserting
// a term re-sorts its category, which can shift the positions of the terms
// already there.
package dictionary

import (
	"sort"
	"strings"

	"rgehrsitz/semrex/internal/rules"
)

// TermID identifies a term by category and rank within that category.
type TermID struct {
	Category int `json:"category"`
	Position int `json:"position"`
}

// NoTermID is returned for terms the dictionary does not hold.
var NoTermID = TermID{Category: -1, Position: -1}

// Valid reports whether id refers to a registered term.
func (id TermID) Valid() bool {
	return id.Category >= 0 && id.Position >= 0
}

// Dictionary holds the sorted term buckets. It is not safe for concurrent
// use.
type Dictionary struct {
	numbers []float64
	texts   map[int][]string
}

func New() *Dictionary {
	return &Dictionary{texts: make(map[int][]string)}
}

// Insert registers term. It returns false when the term was already present
// or cannot be registered.
func (d *Dictionary) Insert(term rules.Term) bool {
	if !term.Registrable() {
		return false
	}
	if term.Kind == rules.KindNumber {
		if _, ok := d.numberPosition(term.Num); ok {
			return false
		}
		d.numbers = append(d.numbers, term.Num)
		sort.Float64s(d.numbers)
		return true
	}

	l := term.Category()
	bucket := d.texts[l]
	// Insertion is rare compared to lookup, a scan is fine here.
	for _, w := range bucket {
		if w == term.Text {
			return false
		}
	}
	bucket = append(bucket, term.Text)
	sort.Strings(bucket)
	d.texts[l] = bucket
	return true
}

// Resolve returns the current id of term, or NoTermID and false.
func (d *Dictionary) Resolve(term rules.Term) (TermID, bool) {
	if !term.Registrable() {
		return NoTermID, false
	}
	if term.Kind == rules.KindNumber {
		pos, ok := d.numberPosition(term.Num)
		if !ok {
			return NoTermID, false
		}
		return TermID{Category: 0, Position: pos}, true
	}

	l := term.Category()
	bucket := d.texts[l]
	pos := sort.SearchStrings(bucket, term.Text)
	if pos == len(bucket) || bucket[pos] != term.Text {
		return NoTermID, false
	}
	return TermID{Category: l, Position: pos}, true
}

func (d *Dictionary) numberPosition(n float64) (int, bool) {
	pos := sort.SearchFloat64s(d.numbers, n)
	if pos == len(d.numbers) || d.numbers[pos] != n {
		return 0, false
	}
	return pos, true
}

// Term is the reverse of Resolve.
func (d *Dictionary) Term(id TermID) (rules.Term, bool) {
	if !id.Valid() {
		return rules.Term{}, false
	}
	if id.Category == 0 {
		if id.Position >= len(d.numbers) {
			return rules.Term{}, false
		}
		return rules.Number(d.numbers[id.Position]), true
	}
	bucket := d.texts[id.Category]
	if id.Position >= len(bucket) {
		return rules.Term{}, false
	}
	return rules.Text(bucket[id.Position]), true
}

// EqualIDs compares two ids structurally. Unknown ids are never equal.
func EqualIDs(a, b TermID) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	return a == b
}

// Len is the number of registered terms.
func (d *Dictionary) Len() int {
	n := len(d.numbers)
	for _, bucket := range d.texts {
		n += len(bucket)
	}
	return n
}

// Categories lists the non-empty categories in ascending order.
func (d *Dictionary) Categories() []int {
	var cats []int
	if len(d.numbers) > 0 {
		cats = append(cats, 0)
	}
	for l, bucket := range d.texts {
		if len(bucket) > 0 {
			cats = append(cats, l)
		}
	}
	sort.Ints(cats)
	return cats
}

// Clone returns an independent copy.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{
		numbers: append([]float64(nil), d.numbers...),
		texts:   make(map[int][]string, len(d.texts)),
	}
	for l, bucket := range d.texts {
		c.texts[l] = append([]string(nil), bucket...)
	}
	return c
}

// String renders the buckets for debugging.
func (d *Dictionary) String() string {
	var sb strings.Builder
	for _, c := range d.Categories() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		if c == 0 {
			for i, n := range d.numbers {
				if i > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(rules.Number(n).String())
			}
			continue
		}
		sb.WriteString(strings.Join(d.texts[c], ","))
	}
	return sb.String()
}
