package app

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	esTarget "github.com/mmrzaf/sbgen/internal/infra/targets/elasticsearch"
	fileTarget "github.com/mmrzaf/sbgen/internal/infra/targets/file"
	parquetTarget "github.com/mmrzaf/sbgen/internal/infra/targets/parquet"
	pgTarget "github.com/mmrzaf/sbgen/internal/infra/targets/postgres"
	sqliteTarget "github.com/mmrzaf/sbgen/internal/infra/targets/sqlite"
)

// outputSettings are the per-run choices that shape file output.
type outputSettings struct {
	Format   string
	Compress bool
	Part     int
	Stdout   io.Writer
}

// resolveTargetForRun returns the target a run writes to. Without a
// configured target, runs write files to outputDir. A "database" option
// on a postgres target replaces the database named in its DSN.
func resolveTargetForRun(base *domain.TargetConfig, outputDir, format string) *domain.TargetConfig {
	if base == nil {
		if outputDir == "" {
			outputDir = "."
		}
		base = &domain.TargetConfig{ID: "local", Name: "local", Kind: domain.TargetKindFile, DSN: outputDir}
	}
	t := *base
	switch t.Kind {
	case domain.TargetKindFile, domain.TargetKindParquet:
		if outputDir != "" {
			t.DSN = outputDir
		}
		if t.DSN == "" {
			t.DSN = "."
		}
		if format == domain.FormatParquet {
			t.Kind = domain.TargetKindParquet
		} else if format != "" {
			t.Kind = domain.TargetKindFile
		}
	case domain.TargetKindPostgres:
		if db := t.Options["database"]; db != "" {
			t.DSN = withPostgresDatabase(t.DSN, db)
		}
	}
	return &t
}

func withPostgresDatabase(dsn, database string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return dsn
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.Host != "" {
		u.Path = "/" + database
		return u.String()
	}
	parts := strings.Fields(dsn)
	found := false
	for i := range parts {
		if strings.HasPrefix(strings.ToLower(parts[i]), "dbname=") {
			parts[i] = "dbname=" + database
			found = true
			break
		}
	}
	if !found {
		parts = append(parts, "dbname="+database)
	}
	return strings.Join(parts, " ")
}

// outputFor fills unset output settings from the target's options.
func outputFor(t *domain.TargetConfig, out outputSettings) outputSettings {
	if out.Format == "" {
		out.Format = t.Options["format"]
	}
	if out.Format == "" {
		out.Format = domain.FormatTbl
	}
	if !out.Compress {
		out.Compress, _ = strconv.ParseBool(t.Options["compress"])
	}
	return out
}

func buildTarget(t *domain.TargetConfig, out outputSettings) (exec.Target, error) {
	switch t.Kind {
	case domain.TargetKindFile:
		out = outputFor(t, out)
		return fileTarget.NewFileTarget(fileTarget.Options{
			Dir:      t.DSN,
			Format:   out.Format,
			Compress: out.Compress,
			Part:     out.Part,
			Stdout:   out.Stdout,
		}), nil
	case domain.TargetKindParquet:
		return parquetTarget.NewParquetTarget(parquetTarget.Options{Dir: t.DSN, Part: out.Part}), nil
	case domain.TargetKindSQLite:
		return sqliteTarget.NewSQLiteTarget(t.DSN), nil
	case domain.TargetKindPostgres:
		return pgTarget.NewPostgresTarget(t.DSN, t.Schema), nil
	case domain.TargetKindElasticsearch:
		return esTarget.NewElasticsearchTarget(t.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported target kind: %s", t.Kind)
	}
}
