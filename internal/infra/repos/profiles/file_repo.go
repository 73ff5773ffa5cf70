package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/sbgen/internal/domain"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrPathTraversal = errors.New("profile path escapes profiles directory")
)

type Repository interface {
	List() ([]*domain.Profile, error)
	Get(id string) (*domain.Profile, error)
	GetByPath(path string) (*domain.Profile, error)
}

// FileRepository loads run profiles from YAML or JSON files under baseDir.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func (r *FileRepository) List() ([]*domain.Profile, error) {
	entries, err := os.ReadDir(r.baseDir)
	if os.IsNotExist(err) {
		return []*domain.Profile{}, nil
	}
	if err != nil {
		return nil, err
	}

	profiles := make([]*domain.Profile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		p, err := r.loadProfile(filepath.Join(r.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (r *FileRepository) Get(id string) (*domain.Profile, error) {
	profiles, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.ID == id || p.Name == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetByPath loads a profile file. Relative paths resolve against the
// base directory and neither form may leave it.
func (r *FileRepository) GetByPath(path string) (*domain.Profile, error) {
	resolved, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return r.loadProfile(resolved)
}

func (r *FileRepository) resolve(path string) (string, error) {
	base, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	return path, nil
}

func (r *FileRepository) loadProfile(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p domain.Profile
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	return &p, nil
}
