package pools

import "sync"

// Reference bundles the read-only data a table generator needs.
type Reference struct {
	Distributions *Distributions
	Text          *TextPool
}

// NewReference builds the distributions and a text pool of textSize bytes.
func NewReference(textSize int) *Reference {
	d := DefaultDistributions()
	return &Reference{Distributions: d, Text: NewTextPool(textSize, d)}
}

// Provider builds a Reference on first use and hands the same value to
// every later caller. Concurrent first callers block until it is ready.
type Provider struct {
	get func() *Reference
}

// EffectiveTextSize maps a non-positive size to DefaultTextPoolSize.
func EffectiveTextSize(textSize int) int {
	if textSize <= 0 {
		return DefaultTextPoolSize
	}
	return textSize
}

func NewProvider(textSize int) *Provider {
	textSize = EffectiveTextSize(textSize)
	return &Provider{get: sync.OnceValue(func() *Reference { return NewReference(textSize) })}
}

func (p *Provider) Get() *Reference { return p.get() }
