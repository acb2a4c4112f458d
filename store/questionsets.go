package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mbolis/survey-templates/model"
)

const defaultSubscript = "Standard"

// QuestionSetPatch holds the header attributes to change; nil fields are kept.
type QuestionSetPatch struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	SourceViewName *string `json:"sourceViewName"`
	Subscript      *string `json:"subscript"`
}

const questionSetColumns = `ID, Name, Description, SourceViewName, Subscript`

func scanQuestionSet(sc scanner) (qs model.QuestionSetHeader, err error) {
	var description, view, subscript sql.NullString
	err = sc.Scan(&qs.ID, &qs.Name, &description, &view, &subscript)
	qs.Description = description.String
	qs.SourceViewName = view.String
	qs.Subscript = subscript.String
	return
}

func (s *Store) ListQuestionSets(ctx context.Context) (sets []model.QuestionSetHeader, err error) {
	db, done, err := s.begin(ctx, "list_question_sets")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := db.QueryContext(ctx, `
		SELECT `+questionSetColumns+`
		FROM QuestionSetHeader
		ORDER BY Name, ID`)
	if err != nil {
		return nil, fmt.Errorf("db.list_question_sets: %w", err)
	}
	defer rows.Close()

	sets = []model.QuestionSetHeader{}
	for rows.Next() {
		qs, err := scanQuestionSet(rows)
		if err != nil {
			return nil, fmt.Errorf("db.list_question_sets.scan: %w", err)
		}
		sets = append(sets, qs)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_question_sets.rows: %w", err)
	}
	return sets, nil
}

func (s *Store) GetQuestionSet(ctx context.Context, id int) (qs model.QuestionSetHeader, err error) {
	db, done, err := s.begin(ctx, "get_question_set")
	if err != nil {
		return qs, err
	}
	defer done(&err)

	return getQuestionSet(ctx, db, id)
}

func getQuestionSet(ctx context.Context, q execer, id int) (model.QuestionSetHeader, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+questionSetColumns+`
		FROM QuestionSetHeader
		WHERE ID = @id`,
		sql.Named("id", id),
	)
	qs, err := scanQuestionSet(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return qs, notFoundf("question set %d", id)
	case err != nil:
		return qs, fmt.Errorf("db.get_question_set.scan: %w", err)
	}
	return qs, nil
}

func validateQuestionSet(qs *model.QuestionSetHeader) error {
	qs.Name = strings.TrimSpace(qs.Name)
	qs.SourceViewName = strings.TrimSpace(qs.SourceViewName)
	if qs.Name == "" {
		return invalidf("question set name is required")
	}
	if qs.SourceViewName != "" && !ValidIdentifier(qs.SourceViewName) {
		return invalidf("invalid source view name %q", qs.SourceViewName)
	}
	return nil
}

func (s *Store) CreateQuestionSet(ctx context.Context, qs model.QuestionSetHeader) (_ model.QuestionSetHeader, err error) {
	if err = validateQuestionSet(&qs); err != nil {
		return qs, err
	}
	if strings.TrimSpace(qs.Subscript) == "" {
		qs.Subscript = defaultSubscript
	}

	db, done, err := s.begin(ctx, "create_question_set")
	if err != nil {
		return qs, err
	}
	defer done(&err)

	query := s.pool.Dialect().InsertReturningID(
		"QuestionSetHeader",
		"Name, Description, SourceViewName, Subscript",
		"@name, @description, @view, @subscript",
	)
	err = db.QueryRowContext(ctx, query,
		sql.Named("name", qs.Name),
		sql.Named("description", nullString(qs.Description)),
		sql.Named("view", nullString(qs.SourceViewName)),
		sql.Named("subscript", qs.Subscript),
	).Scan(&qs.ID)
	if err != nil {
		return qs, fmt.Errorf("db.create_question_set: %w", err)
	}
	return qs, nil
}

func (s *Store) UpdateQuestionSet(ctx context.Context, id int, patch QuestionSetPatch) (qs model.QuestionSetHeader, err error) {
	db, done, err := s.begin(ctx, "update_question_set")
	if err != nil {
		return qs, err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return qs, fmt.Errorf("db.update_question_set.begin_tx: %w", err)
	}
	defer tx.Rollback()

	qs, err = getQuestionSet(ctx, tx, id)
	if err != nil {
		return qs, err
	}

	if patch.Name != nil {
		qs.Name = *patch.Name
	}
	if patch.Description != nil {
		qs.Description = *patch.Description
	}
	if patch.SourceViewName != nil {
		qs.SourceViewName = *patch.SourceViewName
	}
	if patch.Subscript != nil {
		qs.Subscript = *patch.Subscript
	}
	if err = validateQuestionSet(&qs); err != nil {
		return qs, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE QuestionSetHeader
		SET Name = @name, Description = @description, SourceViewName = @view, Subscript = @subscript
		WHERE ID = @id`,
		sql.Named("name", qs.Name),
		sql.Named("description", nullString(qs.Description)),
		sql.Named("view", nullString(qs.SourceViewName)),
		sql.Named("subscript", nullString(qs.Subscript)),
		sql.Named("id", id),
	)
	if err != nil {
		return qs, fmt.Errorf("db.update_question_set: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return qs, fmt.Errorf("db.update_question_set.commit: %w", err)
	}
	return qs, nil
}

// DeleteQuestionSet removes a question set with its questions and its links to
// survey templates. The links left in each affected template are renumbered.
func (s *Store) DeleteQuestionSet(ctx context.Context, id int) (err error) {
	db, done, err := s.begin(ctx, "delete_question_set")
	if err != nil {
		return err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.delete_question_set.begin_tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT SurveyTemplateHeaderID
		FROM SurveyTemplateQuestion
		WHERE QuestionSetHeaderID = @id`,
		sql.Named("id", id),
	)
	if err != nil {
		return fmt.Errorf("db.delete_question_set.templates: %w", err)
	}
	var templates []int
	for rows.Next() {
		var templateID int
		if err = rows.Scan(&templateID); err != nil {
			rows.Close()
			return fmt.Errorf("db.delete_question_set.templates.scan: %w", err)
		}
		templates = append(templates, templateID)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("db.delete_question_set.templates.rows: %w", err)
	}

	for _, stmt := range []struct{ code, query string }{
		{"links", `DELETE FROM SurveyTemplateQuestion WHERE QuestionSetHeaderID = @id`},
		{"questions", `DELETE FROM QuestionSetQuestion WHERE QuestionSetHeaderID = @id`},
	} {
		if _, err = tx.ExecContext(ctx, stmt.query, sql.Named("id", id)); err != nil {
			return fmt.Errorf("db.delete_question_set.%s: %w", stmt.code, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM QuestionSetHeader WHERE ID = @id`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("db.delete_question_set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("question set %d", id)
	}

	for _, templateID := range templates {
		if err = densifyLinks(ctx, tx, templateID); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db.delete_question_set.commit: %w", err)
	}
	return nil
}
