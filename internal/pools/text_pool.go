package pools

import (
	"math"

	"github.com/mmrzaf/sbgen/internal/random"
)

const (
	// DefaultTextPoolSize is the corpus size used for full-scale output.
	DefaultTextPoolSize = 300 * 1024 * 1024

	textPoolSeed = 933588178
)

// TextPool is a fixed corpus of grammar-generated sentences. Text columns
// are windows into it.
type TextPool struct {
	text string
}

// NewTextPool generates size bytes of text from the grammar in d.
// The output depends only on size and d.
func NewTextPool(size int, d *Distributions) *TextPool {
	g := &sentenceBuilder{
		d:   d,
		r:   random.NewRowRandomInt(textPoolSeed, math.MaxInt32),
		buf: make([]byte, 0, size+200),
	}
	for len(g.buf) < size {
		g.sentence()
	}
	return &TextPool{text: string(g.buf[:size])}
}

func (p *TextPool) Size() int { return len(p.text) }

func (p *TextPool) Text(begin, end int) string { return p.text[begin:end] }

type sentenceBuilder struct {
	d   *Distributions
	r   *random.RowRandomInt
	buf []byte
}

func (g *sentenceBuilder) pick(d *Distribution) string {
	return d.Pick(g.r.NextInt(0, d.MaxWeight()-1))
}

func (g *sentenceBuilder) word(d *Distribution) {
	g.buf = append(g.buf, g.pick(d)...)
	g.buf = append(g.buf, ' ')
}

func (g *sentenceBuilder) sentence() {
	syntax := g.pick(g.d.Grammar)
	for i := 0; i < len(syntax); i += 2 {
		switch syntax[i] {
		case 'V':
			g.verbPhrase()
		case 'N':
			g.nounPhrase()
		case 'P':
			g.buf = append(g.buf, g.pick(g.d.Prepositions)...)
			g.buf = append(g.buf, " the "...)
			g.nounPhrase()
		case 'T':
			g.buf = g.buf[:len(g.buf)-1]
			g.buf = append(g.buf, g.pick(g.d.Terminators)...)
		}
		if g.buf[len(g.buf)-1] != ' ' {
			g.buf = append(g.buf, ' ')
		}
	}
}

func (g *sentenceBuilder) nounPhrase() {
	syntax := g.pick(g.d.NounPhrase)
	for i := 0; i < len(syntax); i++ {
		switch syntax[i] {
		case 'A':
			g.word(g.d.Articles)
		case 'J':
			g.word(g.d.Adjectives)
		case 'D':
			g.word(g.d.Adverbs)
		case 'N':
			g.word(g.d.Nouns)
		case ',':
			g.buf = g.buf[:len(g.buf)-1]
			g.buf = append(g.buf, ", "...)
		}
	}
}

func (g *sentenceBuilder) verbPhrase() {
	syntax := g.pick(g.d.VerbPhrase)
	for i := 0; i < len(syntax); i += 2 {
		switch syntax[i] {
		case 'D':
			g.word(g.d.Adverbs)
		case 'V':
			g.word(g.d.Verbs)
		case 'X':
			g.word(g.d.Auxiliaries)
		}
	}
}
