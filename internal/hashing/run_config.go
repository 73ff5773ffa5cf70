package hashing

import (
	"sort"
	"strings"

	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

type runConfigHashPayload struct {
	Tables      []string `json:"tables"`
	ScaleFactor float64  `json:"scale_factor"`
	Parts       int      `json:"parts"`
	SpatialHash string   `json:"spatial_hash,omitempty"`
	// Zero for the default corpus.
	TextPoolSize int `json:"text_pool_size,omitempty"`
}

// HashRunConfig identifies the data a run produces. Table order and case
// do not matter; the sink does not take part. The text pool size shapes
// every generated comment, so a non-default size is part of the hash.
func HashRunConfig(tables []string, scaleFactor float64, parts, textPoolSize int, sp *spatial.File) (string, error) {
	sh, err := HashSpatial(sp)
	if err != nil {
		return "", err
	}

	canon := make([]string, len(tables))
	for i, t := range tables {
		canon[i] = strings.ToLower(strings.TrimSpace(t))
	}
	sort.Strings(canon)

	poolSize := pools.EffectiveTextSize(textPoolSize)
	if poolSize == pools.DefaultTextPoolSize {
		poolSize = 0
	}

	return sum(runConfigHashPayload{
		Tables:       canon,
		ScaleFactor:  scaleFactor,
		Parts:        parts,
		SpatialHash:  sh,
		TextPoolSize: poolSize,
	})
}
