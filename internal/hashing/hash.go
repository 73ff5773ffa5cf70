package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmrzaf/sbgen/internal/spatial"
)

func sum(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// HashSpatial hashes spatial overrides after normalizing them, so two
// files that parse to the same configuration hash alike. Nil hashes to "".
func HashSpatial(f *spatial.File) (string, error) {
	if f == nil {
		return "", nil
	}
	o, err := f.Overrides()
	if err != nil {
		return "", err
	}
	var canon spatial.File
	if o.Trip != nil {
		ic := spatial.Inline(*o.Trip)
		canon.Trip = &ic
	}
	if o.Building != nil {
		ic := spatial.Inline(*o.Building)
		canon.Building = &ic
	}
	return sum(canon)
}
