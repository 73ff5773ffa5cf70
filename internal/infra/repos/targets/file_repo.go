package targets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/sbgen/internal/domain"
)

// FileRepository reads one target definition per YAML or JSON file in baseDir.
type FileRepository struct {
	baseDir string
}

func NewFileRepository(baseDir string) *FileRepository {
	return &FileRepository{baseDir: baseDir}
}

func isConfigFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// List skips files that fail to parse.
func (r *FileRepository) List() ([]*domain.TargetConfig, error) {
	entries, err := os.ReadDir(r.baseDir)
	if os.IsNotExist(err) {
		return []*domain.TargetConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	targets := make([]*domain.TargetConfig, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isConfigFile(entry.Name()) {
			continue
		}
		target, err := r.loadTarget(filepath.Join(r.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets, nil
}

// Get matches by id or name.
func (r *FileRepository) Get(id string) (*domain.TargetConfig, error) {
	targets, err := r.List()
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t.ID == id || t.Name == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r *FileRepository) GetByPath(path string) (*domain.TargetConfig, error) {
	return r.loadTarget(path)
}

func (r *FileRepository) loadTarget(path string) (*domain.TargetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var target domain.TargetConfig
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &target)
	} else {
		err = yaml.Unmarshal(data, &target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse target %s: %w", path, err)
	}

	if target.ID == "" {
		target.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if target.Name == "" {
		target.Name = target.ID
	}
	target.Kind = strings.ToLower(strings.TrimSpace(target.Kind))
	return &target, nil
}
