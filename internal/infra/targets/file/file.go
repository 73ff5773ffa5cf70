// Package file writes tables as pipe-delimited tbl or CSV text, one file
// per table, optionally snappy-framed.
package file

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/mmrzaf/sbgen/internal/domain"
)

// StdoutDir as the output directory sends every table to standard output.
const StdoutDir = "-"

type Options struct {
	Dir    string
	Format string
	// Compress wraps each file in the snappy framing format.
	Compress bool
	// Part, when non-zero, is added to file names: trip.3.tbl.
	Part int
	// Stdout replaces os.Stdout when Dir is StdoutDir.
	Stdout io.Writer
}

type FileTarget struct {
	opts  Options
	files map[string]*tableFile
}

type tableFile struct {
	closer io.Closer
	snappy *snappy.Writer
	buf    *bufio.Writer
	csv    *csv.Writer
}

func NewFileTarget(opts Options) *FileTarget {
	if opts.Format == "" {
		opts.Format = domain.FormatTbl
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &FileTarget{opts: opts, files: make(map[string]*tableFile)}
}

func (t *FileTarget) Kind() string { return domain.TargetKindFile }

// OutputPath names the file a table part is written to.
func OutputPath(dir, table, ext string, part int) string {
	name := table
	if part > 0 {
		name += "." + strconv.Itoa(part)
	}
	return filepath.Join(dir, name+"."+ext)
}

func (t *FileTarget) Path(table string) string {
	ext := t.opts.Format
	if t.opts.Compress {
		ext += ".snappy"
	}
	return OutputPath(t.opts.Dir, table, ext, t.opts.Part)
}

func (t *FileTarget) Connect() error {
	switch t.opts.Format {
	case domain.FormatTbl, domain.FormatCSV:
	default:
		return fmt.Errorf("unsupported file format: %s", t.opts.Format)
	}
	if t.opts.Dir == StdoutDir {
		if t.opts.Stdout == nil {
			t.opts.Stdout = os.Stdout
		}
		return nil
	}
	return os.MkdirAll(t.opts.Dir, 0o755)
}

// CreateTableIfNotExists starts a fresh file for the table, replacing any
// file left by an earlier run.
func (t *FileTarget) CreateTableIfNotExists(schema domain.TableSchema) error {
	if old, ok := t.files[schema.Name]; ok {
		if err := old.close(); err != nil {
			return err
		}
	}

	var (
		w      io.Writer
		closer io.Closer
	)
	if t.opts.Dir == StdoutDir {
		w = t.opts.Stdout
	} else {
		f, err := os.Create(t.Path(schema.Name))
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		w, closer = f, f
	}

	tf := &tableFile{closer: closer}
	if t.opts.Compress {
		tf.snappy = snappy.NewBufferedWriter(w)
		w = tf.snappy
	}
	tf.buf = bufio.NewWriterSize(w, 1<<16)
	if t.opts.Format == domain.FormatCSV {
		tf.csv = csv.NewWriter(tf.buf)
		if err := tf.csv.Write(schema.ColumnNames()); err != nil {
			return err
		}
	}
	t.files[schema.Name] = tf
	return nil
}

// TruncateTable is a no-op: every run starts new files.
func (t *FileTarget) TruncateTable(string) error { return nil }

func (t *FileTarget) InsertBatch(tableName string, _ []string, rows [][]any) error {
	tf, ok := t.files[tableName]
	if !ok {
		return fmt.Errorf("table %s was not created", tableName)
	}
	if tf.csv != nil {
		record := make([]string, 0, 16)
		for _, row := range rows {
			record = record[:0]
			for _, v := range row {
				record = append(record, FormatValue(v))
			}
			if err := tf.csv.Write(record); err != nil {
				return err
			}
		}
		tf.csv.Flush()
		return tf.csv.Error()
	}
	for _, row := range rows {
		for _, v := range row {
			tf.buf.WriteString(FormatValue(v))
			tf.buf.WriteByte('|')
		}
		if err := tf.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

func (t *FileTarget) Close() error {
	var firstErr error
	for name, tf := range t.files {
		if err := tf.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
		delete(t.files, name)
	}
	return firstErr
}

func (tf *tableFile) close() error {
	if tf.csv != nil {
		tf.csv.Flush()
	}
	err := tf.buf.Flush()
	if tf.snappy != nil {
		if cerr := tf.snappy.Close(); err == nil {
			err = cerr
		}
	}
	if tf.closer != nil {
		if cerr := tf.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// FormatValue renders a generated value the way it appears in text output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case fmt.Stringer:
		return val.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
