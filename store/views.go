package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mbolis/survey-templates/fields"
	"github.com/mbolis/survey-templates/metrics"
	"github.com/mbolis/survey-templates/model"
)

var reIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdentifier reports whether name may be interpolated into a query as a
// view name.
func ValidIdentifier(name string) bool {
	return reIdentifier.MatchString(name)
}

func (s *Store) ListViews(ctx context.Context) (views []model.ViewInfo, err error) {
	db, done, err := s.begin(ctx, "list_views")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := db.QueryContext(ctx, s.pool.Dialect().ListViews)
	if err != nil {
		return nil, fmt.Errorf("db.list_views: %w", err)
	}
	defer rows.Close()

	views = []model.ViewInfo{}
	for rows.Next() {
		v := model.ViewInfo{}
		if err = rows.Scan(&v.Schema, &v.Name); err != nil {
			return nil, fmt.Errorf("db.list_views.scan: %w", err)
		}
		v.FullName = v.Schema + "." + v.Name
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_views.rows: %w", err)
	}
	return views, nil
}

// ViewRows returns every row of a view, untyped.
func (s *Store) ViewRows(ctx context.Context, view string) (records []model.Row, err error) {
	if !ValidIdentifier(view) {
		return nil, invalidf("invalid view name %q", view)
	}

	db, done, err := s.begin(ctx, "view_rows")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := db.QueryContext(ctx, `SELECT * FROM [`+view+`]`)
	if err != nil {
		return nil, fmt.Errorf("db.view_rows: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db.view_rows.columns: %w", err)
	}

	records = []model.Row{}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("db.view_rows.scan: %w", err)
		}
		record := make(model.Row, len(columns))
		for i, column := range columns {
			record[column] = model.ValueOf(values[i])
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.view_rows.rows: %w", err)
	}
	return records, nil
}

// ViewColumns describes the columns of a view from the driver metadata.
func (s *Store) ViewColumns(ctx context.Context, view string) (columns []model.ColumnInfo, err error) {
	if !ValidIdentifier(view) {
		return nil, invalidf("invalid view name %q", view)
	}

	db, done, err := s.begin(ctx, "view_columns")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := db.QueryContext(ctx, `SELECT * FROM [`+view+`] WHERE 1 = 0`)
	if err != nil {
		return nil, fmt.Errorf("db.view_columns: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("db.view_columns.types: %w", err)
	}

	columns = make([]model.ColumnInfo, len(types))
	for i, ct := range types {
		nullable, ok := ct.Nullable()
		columns[i] = model.ColumnInfo{
			Name:         ct.Name(),
			DatabaseType: ct.DatabaseTypeName(),
			Nullable:     nullable || !ok,
			Position:     i + 1,
		}
	}
	return columns, nil
}

// SourceFields reads the current fields of a question set's source view.
func (s *Store) SourceFields(ctx context.Context, view string) ([]model.SourceField, error) {
	rows, err := s.ViewRows(ctx, view)
	if err != nil {
		if ValidIdentifier(view) {
			metrics.SourceFetchFailures.WithLabelValues(view).Inc()
		}
		return nil, err
	}
	return fields.ExtractAll(rows), nil
}
