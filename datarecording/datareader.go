package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams narrows and orders a table query.
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword, with ?
	// placeholders filled from Args.
	Where string
	Args  []any

	// OrderBy specifies sorting, without the "ORDER BY" keywords.
	OrderBy string

	// Limit caps the number of returned rows; 0 means no limit. Offset
	// skips rows for pagination.
	Limit  int
	Offset int
}

// DataReader reads previously recorded simulation results.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go
	// struct type. The mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns all tables that have been mapped.
	ListTables() []string

	// Query returns the rows of a table as pointers to the mapped struct
	// type, together with the total row count ignoring Limit/Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader.
	Close() error
}

// NewReader creates a DataReader over the SQLite file at the given path.
func NewReader(path string) DataReader {
	filename := path
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

// NewReaderWithDB creates a DataReader on an existing database connection.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for table := range r.typeMap {
		tables = append(tables, table)
	}

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("no mapping found for table: %s",
			tableName)
	}

	query := "SELECT * FROM " + tableName

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	totalCount, err := r.queryTotalCount(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := r.scanRows(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	return results, totalCount, nil
}

func (r *sqliteReader) queryTotalCount(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	countQuery := "SELECT COUNT(*) FROM " + tableName
	if params.Where != "" {
		countQuery += " WHERE " + params.Where
	}

	var totalCount int
	err := r.DB.QueryRowContext(ctx, countQuery, params.Args...).
		Scan(&totalCount)
	if err != nil {
		return 0, err
	}

	return totalCount, nil
}

func (r *sqliteReader) scanRows(
	rows *sql.Rows,
	structType reflect.Type,
) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex := make(map[string]int)
	for i := 0; i < structType.NumField(); i++ {
		fieldIndex[structType.Field(i).Name] = i
	}

	var results []any

	for rows.Next() {
		structPtr := reflect.New(structType)
		structVal := structPtr.Elem()

		scanTargets := make([]any, len(columns))
		for i, colName := range columns {
			if idx, ok := fieldIndex[colName]; ok {
				scanTargets[i] = structVal.Field(idx).Addr().Interface()
			} else {
				var placeholder any
				scanTargets[i] = &placeholder
			}
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		results = append(results, structPtr.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
