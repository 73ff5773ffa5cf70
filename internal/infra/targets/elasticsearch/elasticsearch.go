// Package elasticsearch indexes generated tables through the REST API.
// Each table becomes one index; geometry columns are mapped as geo_shape
// and sent as WKT.
package elasticsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmrzaf/sbgen/internal/domain"
)

const requestTimeout = 15 * time.Second

type ElasticsearchTarget struct {
	baseURL string
	client  *http.Client
}

func NewElasticsearchTarget(dsn string) *ElasticsearchTarget {
	return &ElasticsearchTarget{
		baseURL: normalizeURL(dsn),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (t *ElasticsearchTarget) Kind() string { return domain.TargetKindElasticsearch }

// statusError carries a non-2xx response.
type statusError struct {
	op     string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("elasticsearch %s failed: status=%d body=%s", e.op, e.status, e.body)
}

// do sends one request and returns the body of a 2xx response.
func (t *ElasticsearchTarget) do(op, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch %s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return data, &statusError{op: op, status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func (t *ElasticsearchTarget) Connect() error {
	_, err := t.do("ping", http.MethodGet, "/", "", nil)
	return err
}

func (t *ElasticsearchTarget) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// indexMapping maps generated column types onto Elasticsearch field types.
func indexMapping(schema domain.TableSchema) map[string]any {
	props := make(map[string]any, len(schema.Columns))
	for _, col := range schema.Columns {
		switch col.Type {
		case domain.ColumnTypeBigInt:
			props[col.Name] = map[string]any{"type": "long"}
		case domain.ColumnTypeDecimal:
			props[col.Name] = map[string]any{"type": "scaled_float", "scaling_factor": 100}
		case domain.ColumnTypeTimestamp:
			props[col.Name] = map[string]any{"type": "date", "format": "yyyy-MM-dd HH:mm:ss"}
		case domain.ColumnTypeGeometry:
			props[col.Name] = map[string]any{"type": "geo_shape"}
		default:
			props[col.Name] = map[string]any{"type": "keyword"}
		}
	}
	return map[string]any{"mappings": map[string]any{"properties": props}}
}

func (t *ElasticsearchTarget) CreateTableIfNotExists(schema domain.TableSchema) error {
	payload, err := json.Marshal(indexMapping(schema))
	if err != nil {
		return err
	}
	_, err = t.do("create index", http.MethodPut, "/"+toIndexName(schema.Name), "application/json", bytes.NewReader(payload))
	if se, ok := err.(*statusError); ok && se.status == http.StatusBadRequest &&
		strings.Contains(se.body, "resource_already_exists_exception") {
		return nil
	}
	return err
}

func (t *ElasticsearchTarget) TruncateTable(tableName string) error {
	payload := strings.NewReader(`{"query":{"match_all":{}}}`)
	_, err := t.do("truncate", http.MethodPost, "/"+toIndexName(tableName)+"/_delete_by_query", "application/json", payload)
	return err
}

// InsertBatch uses the first column, the table key, as the document id so
// that re-running a part overwrites instead of duplicating.
func (t *ElasticsearchTarget) InsertBatch(tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	indexName := toIndexName(tableName)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values for %d columns", len(row), len(columns))
		}
		action := map[string]any{"_index": indexName, "_id": fmt.Sprint(row[0])}
		if err := enc.Encode(map[string]any{"index": action}); err != nil {
			return err
		}
		doc := make(map[string]any, len(columns))
		for i, col := range columns {
			doc[col] = row[i]
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode %s row %v: %w", tableName, row[0], err)
		}
	}

	body, err := t.do("bulk insert", http.MethodPost, "/_bulk", "application/x-ndjson", &buf)
	if err != nil {
		return err
	}
	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(body, &bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk insert: unreadable response: %w", err)
	}
	if bulkResp.Errors {
		return fmt.Errorf("elasticsearch bulk insert into %s returned item errors", indexName)
	}
	return nil
}

func normalizeURL(dsn string) string {
	dsn = strings.TrimRight(strings.TrimSpace(dsn), "/")
	switch {
	case dsn == "":
		return "http://localhost:9200"
	case strings.HasPrefix(dsn, "http://"), strings.HasPrefix(dsn, "https://"):
		return dsn
	default:
		return "http://" + dsn
	}
}

func toIndexName(name string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(name)))
}

// GetServerVersion reads version.number from the cluster root endpoint.
func GetServerVersion(dsn string) (string, error) {
	body, err := NewElasticsearchTarget(dsn).do("version", http.MethodGet, "/", "", nil)
	if err != nil {
		return "", err
	}
	var root struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.Unmarshal(body, &root); err != nil {
		return "", err
	}
	return root.Version.Number, nil
}
