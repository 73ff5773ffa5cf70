package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

type Validator struct {
	tables *registry.TableRegistry
}

func NewValidator(tables *registry.TableRegistry) *Validator {
	return &Validator{tables: tables}
}

// identifier validation: allow simple SQL identifiers only (prevents injection via table/schema names).
var (
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reservedWords = map[string]struct{}{
		"add": {}, "all": {}, "alter": {}, "and": {}, "any": {}, "as": {},
		"asc": {}, "between": {}, "by": {}, "case": {}, "check": {},
		"column": {}, "constraint": {}, "create": {}, "cross": {}, "current_date": {},
		"current_time": {}, "current_timestamp": {}, "database": {}, "default": {}, "delete": {},
		"desc": {}, "distinct": {}, "do": {}, "drop": {}, "else": {},
		"end": {}, "except": {}, "exists": {}, "false": {}, "for": {},
		"foreign": {}, "from": {}, "full": {}, "grant": {}, "group": {},
		"having": {}, "in": {}, "index": {}, "inner": {}, "insert": {},
		"intersect": {}, "into": {}, "is": {}, "join": {}, "key": {},
		"left": {}, "like": {}, "limit": {}, "natural": {}, "not": {},
		"null": {}, "offset": {}, "on": {}, "or": {}, "order": {},
		"outer": {}, "primary": {}, "references": {}, "returning": {}, "revoke": {},
		"right": {}, "schema": {}, "select": {}, "set": {}, "table": {},
		"then": {}, "to": {}, "true": {}, "truncate": {}, "union": {},
		"unique": {}, "update": {}, "user": {}, "using": {}, "values": {},
		"view": {}, "when": {}, "where": {}, "with": {},
	}
)

func IsValidIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !identRe.MatchString(s) {
		return false
	}
	_, reserved := reservedWords[strings.ToLower(s)]
	return !reserved
}

func IsValidMode(mode string) bool {
	switch mode {
	case domain.TableModeCreateIfMissing, domain.TableModeTruncateThenInsert, domain.TableModeAppendOnly:
		return true
	default:
		return false
	}
}

func IsValidFormat(format string) bool {
	switch format {
	case domain.FormatTbl, domain.FormatCSV, domain.FormatParquet:
		return true
	default:
		return false
	}
}

func validScaleFactor(sf float64) bool {
	return !math.IsNaN(sf) && !math.IsInf(sf, 0) && sf >= 0
}

func (v *Validator) validateTables(names []string) error {
	if _, err := v.tables.Resolve(names); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func validateSpatial(f *spatial.File) error {
	if f == nil {
		return nil
	}
	if _, err := f.Overrides(); err != nil {
		return invalid("spatial: %v", err)
	}
	return nil
}

// ValidateRunRequest checks a request before it is planned. Zero scale
// factor, parts and workers mean "use the default".
func (v *Validator) ValidateRunRequest(req *domain.RunRequest) error {
	if req == nil {
		return invalid("request is required")
	}
	if err := v.validateTables(req.Tables); err != nil {
		return err
	}
	if !validScaleFactor(req.ScaleFactor) {
		return invalid("scale_factor must be > 0, got %v", req.ScaleFactor)
	}
	if req.Parts < 0 {
		return invalid("parts must be >= 1, got %d", req.Parts)
	}
	if req.Part < 0 || (req.Part > 0 && req.Parts > 0 && req.Part > req.Parts) {
		return invalid("part %d out of range [1, %d]", req.Part, req.Parts)
	}
	if req.Part > 0 && req.Parts == 0 {
		return invalid("part requires parts")
	}
	if req.Format != "" && !IsValidFormat(req.Format) {
		return invalid("unsupported format: %s", req.Format)
	}
	if req.Format == domain.FormatParquet && req.Parts > exec.MaxParquetParts {
		return invalid("parquet output supports at most %d parts, got %d", exec.MaxParquetParts, req.Parts)
	}
	if req.Mode != "" && !IsValidMode(req.Mode) {
		return invalid("invalid mode: %s", req.Mode)
	}
	if req.Workers < 0 {
		return invalid("workers must be >= 0, got %d", req.Workers)
	}
	if req.TargetID != "" && req.Target != nil {
		return invalid("only one of target_id or target must be provided")
	}
	if req.Target != nil {
		if err := v.ValidateTarget(req.Target); err != nil {
			return fmt.Errorf("target validation failed: %w", err)
		}
	}
	return validateSpatial(req.Spatial)
}

func (v *Validator) ValidateTarget(t *domain.TargetConfig) error {
	if t == nil {
		return invalid("target is required")
	}
	if t.Kind == "" {
		return invalid("target kind is required")
	}

	switch t.Kind {
	case domain.TargetKindFile, domain.TargetKindParquet:
		if t.Schema != "" {
			return invalid("%s targets must not set schema", t.Kind)
		}
		if f := t.Options["format"]; f != "" && !IsValidFormat(f) {
			return invalid("unsupported format option: %s", f)
		}
	case domain.TargetKindSQLite:
		if t.DSN == "" {
			return invalid("target dsn is required")
		}
		if t.Schema != "" {
			return invalid("sqlite targets must not set schema")
		}
	case domain.TargetKindPostgres:
		if t.DSN == "" {
			return invalid("target dsn is required")
		}
		if t.Schema != "" && !IsValidIdentifier(t.Schema) {
			return invalid("invalid target schema identifier: %s", t.Schema)
		}
	case domain.TargetKindElasticsearch:
		u, err := url.Parse(t.DSN)
		if t.DSN == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("elasticsearch dsn must be an http(s) url: %q", t.DSN)
		}
		if t.Schema != "" {
			return invalid("elasticsearch targets must not set schema")
		}
	default:
		return invalid("unsupported target kind: %s", t.Kind)
	}
	return nil
}

func (v *Validator) ValidateProfile(p *domain.Profile) error {
	if p == nil {
		return invalid("profile is required")
	}
	if p.Name == "" {
		return invalid("profile name is required")
	}
	if err := v.validateTables(p.Tables); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if !validScaleFactor(p.ScaleFactor) {
		return invalid("profile %s: scale_factor must be > 0, got %v", p.Name, p.ScaleFactor)
	}
	if p.Parts < 0 {
		return invalid("profile %s: parts must be >= 1, got %d", p.Name, p.Parts)
	}
	if p.Format != "" && !IsValidFormat(p.Format) {
		return invalid("profile %s: unsupported format: %s", p.Name, p.Format)
	}
	if err := validateSpatial(p.Spatial); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return nil
}
