package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmrzaf/sbgen/internal/domain"
)

func TestCreateTableSQL(t *testing.T) {
	schema := domain.TableSchema{
		Name: "building",
		Columns: []domain.Column{
			{Name: "b_buildingkey", Type: domain.ColumnTypeBigInt},
			{Name: "b_boundary", Type: domain.ColumnTypeGeometry},
			{Name: "t_fare", Type: domain.ColumnTypeDecimal},
		},
	}
	target := NewPostgresTarget("postgres://localhost/x", "")
	got := createTableSQL(target.qualified(schema.Name), schema)
	assert.Equal(t,
		`CREATE TABLE "public"."building" ("b_buildingkey" BIGINT NOT NULL, "b_boundary" TEXT NOT NULL, "t_fare" NUMERIC(15,2) NOT NULL)`,
		got)
}

func TestInsertSQLNumbersParameters(t *testing.T) {
	query, args := insertSQL(`"s"."t"`, []string{"a", "b"}, [][]any{{1, "x"}, {2, "y"}})
	assert.Equal(t, `INSERT INTO "s"."t" ("a", "b") VALUES ($1, $2), ($3, $4)`, query)
	assert.Equal(t, []any{1, "x", 2, "y"}, args)
}
