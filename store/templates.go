package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mbolis/survey-templates/model"
)

const (
	defaultEntityType = "Asset"
	defaultPageSplit  = "NONE"
)

const templateColumns = `ID, Name, Description, EntityType, PageSplit, IsActive`

func scanTemplate(sc scanner) (t model.SurveyTemplateHeader, err error) {
	var description sql.NullString
	err = sc.Scan(&t.ID, &t.Name, &description, &t.EntityType, &t.PageSplit, &t.IsActive)
	t.Description = description.String
	return
}

func normalizeTemplate(t *model.SurveyTemplateHeader) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return invalidf("survey name is required")
	}
	if strings.TrimSpace(t.EntityType) == "" {
		t.EntityType = defaultEntityType
	}
	if strings.TrimSpace(t.PageSplit) == "" {
		t.PageSplit = defaultPageSplit
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) (templates []model.SurveyTemplateHeader, err error) {
	db, done, err := s.begin(ctx, "list_templates")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM SurveyTemplateHeader
		ORDER BY ID DESC`)
	if err != nil {
		return nil, fmt.Errorf("db.list_templates: %w", err)
	}
	defer rows.Close()

	templates = []model.SurveyTemplateHeader{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("db.list_templates.scan: %w", err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_templates.rows: %w", err)
	}
	return templates, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int) (t model.SurveyTemplateHeader, err error) {
	db, done, err := s.begin(ctx, "get_template")
	if err != nil {
		return t, err
	}
	defer done(&err)

	return getTemplate(ctx, db, id)
}

func getTemplate(ctx context.Context, q execer, id int) (model.SurveyTemplateHeader, error) {
	t, err := scanTemplate(q.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM SurveyTemplateHeader
		WHERE ID = @id`,
		sql.Named("id", id),
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return t, notFoundf("survey %d", id)
	case err != nil:
		return t, fmt.Errorf("db.get_template.scan: %w", err)
	}
	return t, nil
}

// CreateTemplate inserts a survey template. Callers decide IsActive; the HTTP
// layer defaults it to true.
func (s *Store) CreateTemplate(ctx context.Context, t model.SurveyTemplateHeader) (_ model.SurveyTemplateHeader, err error) {
	if err = normalizeTemplate(&t); err != nil {
		return t, err
	}

	db, done, err := s.begin(ctx, "create_template")
	if err != nil {
		return t, err
	}
	defer done(&err)

	query := s.pool.Dialect().InsertReturningID(
		"SurveyTemplateHeader",
		"Name, Description, EntityType, PageSplit, IsActive",
		"@name, @description, @entityType, @pageSplit, @isActive",
	)
	err = db.QueryRowContext(ctx, query,
		sql.Named("name", t.Name),
		sql.Named("description", nullString(t.Description)),
		sql.Named("entityType", t.EntityType),
		sql.Named("pageSplit", t.PageSplit),
		sql.Named("isActive", t.IsActive),
	).Scan(&t.ID)
	if err != nil {
		return t, fmt.Errorf("db.create_template: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t model.SurveyTemplateHeader) (_ model.SurveyTemplateHeader, err error) {
	if err = normalizeTemplate(&t); err != nil {
		return t, err
	}

	db, done, err := s.begin(ctx, "update_template")
	if err != nil {
		return t, err
	}
	defer done(&err)

	res, err := db.ExecContext(ctx, `
		UPDATE SurveyTemplateHeader
		SET Name = @name, Description = @description, EntityType = @entityType,
			PageSplit = @pageSplit, IsActive = @isActive
		WHERE ID = @id`,
		sql.Named("name", t.Name),
		sql.Named("description", nullString(t.Description)),
		sql.Named("entityType", t.EntityType),
		sql.Named("pageSplit", t.PageSplit),
		sql.Named("isActive", t.IsActive),
		sql.Named("id", t.ID),
	)
	if err != nil {
		return t, fmt.Errorf("db.update_template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return t, notFoundf("survey %d", t.ID)
	}
	return t, nil
}

// DeleteTemplate removes a survey template and its question set links.
func (s *Store) DeleteTemplate(ctx context.Context, id int) (err error) {
	db, done, err := s.begin(ctx, "delete_template")
	if err != nil {
		return err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.delete_template.begin_tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM SurveyTemplateQuestion WHERE SurveyTemplateHeaderID = @id`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("db.delete_template.links: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM SurveyTemplateHeader WHERE ID = @id`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("db.delete_template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("survey %d", id)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db.delete_template.commit: %w", err)
	}
	return nil
}
