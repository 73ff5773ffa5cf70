// Package pools holds the weighted word lists and the text corpus shared by
// all table generators. Everything here is immutable once built.
package pools

import (
	"fmt"
	"sort"
)

type Entry struct {
	Value  string
	Weight int32
}

// Distribution is an ordered weighted list with cumulative weights. Lists
// with a zero weight are lookup tables only (nations carry their region
// index as weight) and cannot be sampled.
type Distribution struct {
	name       string
	values     []string
	cumulative []int32
	sampleable bool
}

func NewDistribution(name string, entries []Entry) *Distribution {
	d := &Distribution{
		name:       name,
		values:     make([]string, len(entries)),
		cumulative: make([]int32, len(entries)),
		sampleable: len(entries) > 0,
	}
	var total int32
	for i, e := range entries {
		if e.Weight <= 0 {
			d.sampleable = false
		}
		total += e.Weight
		d.values[i] = e.Value
		d.cumulative[i] = total
	}
	return d
}

func (d *Distribution) Name() string { return d.name }

func (d *Distribution) Size() int { return len(d.values) }

func (d *Distribution) Value(i int) string { return d.values[i] }

func (d *Distribution) Values() []string {
	out := make([]string, len(d.values))
	copy(out, d.values)
	return out
}

// Weight returns the individual, not cumulative, weight of entry i.
func (d *Distribution) Weight(i int) int32 {
	if i == 0 {
		return d.cumulative[0]
	}
	return d.cumulative[i] - d.cumulative[i-1]
}

func (d *Distribution) MaxWeight() int32 {
	if len(d.cumulative) == 0 {
		return 0
	}
	return d.cumulative[len(d.cumulative)-1]
}

func (d *Distribution) Sampleable() bool { return d.sampleable }

func (d *Distribution) Pick(draw int32) string {
	if !d.sampleable {
		panic(fmt.Sprintf("pools: distribution %q has non-positive weights and cannot be sampled", d.name))
	}
	i := sort.Search(len(d.cumulative), func(i int) bool { return d.cumulative[i] > draw })
	if i == len(d.cumulative) {
		panic(fmt.Sprintf("pools: draw %d outside distribution %q", draw, d.name))
	}
	return d.values[i]
}

// IndexOf returns the position of value or -1.
func (d *Distribution) IndexOf(value string) int {
	for i, v := range d.values {
		if v == value {
			return i
		}
	}
	return -1
}
