package targets

import (
	"errors"

	"github.com/mmrzaf/sbgen/internal/domain"
)

var ErrNotFound = errors.New("target not found")

// Repository resolves named sink definitions.
type Repository interface {
	List() ([]*domain.TargetConfig, error)
	Get(id string) (*domain.TargetConfig, error)
	GetByPath(path string) (*domain.TargetConfig, error)
}
