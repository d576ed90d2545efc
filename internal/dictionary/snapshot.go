package dictionary

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Snapshot is the exportable form of a dictionary. Each text bucket is
// packed into one string of concatenated, equal-length entries keyed by the
// entry length.
type Snapshot struct {
	Numbers []float64      `json:"numbers"`
	Texts   map[int]string `json:"texts"`
}

// Snapshot exports the dictionary.
func (d *Dictionary) Snapshot() Snapshot {
	s := Snapshot{
		Numbers: append([]float64{}, d.numbers...),
		Texts:   make(map[int]string, len(d.texts)),
	}
	for l, bucket := range d.texts {
		if len(bucket) == 0 {
			continue
		}
		s.Texts[l] = strings.Join(bucket, "")
	}
	return s
}

// FromSnapshot rebuilds a dictionary and checks the ordering invariant.
func FromSnapshot(s Snapshot) (*Dictionary, error) {
	d := New()
	d.numbers = append([]float64(nil), s.Numbers...)
	if !sort.Float64sAreSorted(d.numbers) {
		return nil, fmt.Errorf("numeric terms are not sorted")
	}
	for i, n := range d.numbers {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("numeric term %v is not finite", n)
		}
		if i > 0 && n == d.numbers[i-1] {
			return nil, fmt.Errorf("duplicate numeric term %v", d.numbers[i])
		}
	}

	for l, packed := range s.Texts {
		if l <= 0 {
			return nil, fmt.Errorf("invalid text category %d", l)
		}
		bucket, err := unpack(packed, l)
		if err != nil {
			return nil, fmt.Errorf("text category %d: %w", l, err)
		}
		d.texts[l] = bucket
	}
	return d, nil
}

func unpack(packed string, l int) ([]string, error) {
	if !utf8.ValidString(packed) {
		return nil, fmt.Errorf("packed entries are not valid UTF-8")
	}
	runes := []rune(packed)
	if len(runes)%l != 0 {
		return nil, fmt.Errorf("packed length %d is not a multiple of %d", len(runes), l)
	}
	bucket := make([]string, 0, len(runes)/l)
	for i := 0; i < len(runes); i += l {
		w := string(runes[i : i+l])
		if n := len(bucket); n > 0 && bucket[n-1] >= w {
			return nil, fmt.Errorf("entries are not strictly sorted at %d", i/l)
		}
		bucket = append(bucket, w)
	}
	return bucket, nil
}
