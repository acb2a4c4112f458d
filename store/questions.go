package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mbolis/survey-templates/model"
)

const questionColumns = `ID, QuestionSetHeaderID, FieldName, AttributeLabel, SurveyLabel, DisplayType,
	Choices, Description, Placeholder, MinValue, MaxValue, ColCount,
	IsReadOnly, IsVisible, IsRequired, IsBlind, MinIsCurrent, SortOrder`

func scanQuestion(sc scanner) (q model.QuestionSetQuestion, err error) {
	var (
		attributeLabel, surveyLabel, choices, description, placeholder sql.NullString
		minValue, maxValue                                             sql.NullFloat64
		colCount                                                       sql.NullInt64
		displayType                                                    string
	)
	err = sc.Scan(
		&q.ID, &q.QuestionSetHeaderID, &q.FieldName, &attributeLabel, &surveyLabel, &displayType,
		&choices, &description, &placeholder, &minValue, &maxValue, &colCount,
		&q.IsReadOnly, &q.IsVisible, &q.IsRequired, &q.IsBlind, &q.MinIsCurrent, &q.SortOrder,
	)
	q.AttributeLabel = attributeLabel.String
	q.SurveyLabel = surveyLabel.String
	q.DisplayType = model.DisplayType(displayType)
	q.Choices = choices.String
	q.Description = description.String
	q.Placeholder = placeholder.String
	q.MinValue = floatPtr(minValue)
	q.MaxValue = floatPtr(maxValue)
	q.ColCount = intPtr(colCount)
	return
}

func questionArgs(q model.QuestionSetQuestion) []any {
	return []any{
		sql.Named("setId", q.QuestionSetHeaderID),
		sql.Named("fieldName", q.FieldName),
		sql.Named("attributeLabel", nullString(q.AttributeLabel)),
		sql.Named("surveyLabel", nullString(q.SurveyLabel)),
		sql.Named("displayType", string(q.DisplayType)),
		sql.Named("choices", nullString(q.Choices)),
		sql.Named("description", nullString(q.Description)),
		sql.Named("placeholder", nullString(q.Placeholder)),
		sql.Named("minValue", nullFloat(q.MinValue)),
		sql.Named("maxValue", nullFloat(q.MaxValue)),
		sql.Named("colCount", nullInt(q.ColCount)),
		sql.Named("isReadOnly", q.IsReadOnly),
		sql.Named("isVisible", q.IsVisible),
		sql.Named("isRequired", q.IsRequired),
		sql.Named("isBlind", q.IsBlind),
		sql.Named("minIsCurrent", q.MinIsCurrent),
		sql.Named("sortOrder", q.SortOrder),
	}
}

// ListQuestions returns the persisted questions of a question set in sort
// order. A missing question set is reported as ErrNotFound.
func (s *Store) ListQuestions(ctx context.Context, setID int) (questions []model.QuestionSetQuestion, err error) {
	db, done, err := s.begin(ctx, "list_questions")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	found, err := exists(ctx, db, "QuestionSetHeader", setID)
	if err != nil {
		return nil, fmt.Errorf("db.list_questions.header: %w", err)
	}
	if !found {
		return nil, notFoundf("question set %d", setID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM QuestionSetQuestion
		WHERE QuestionSetHeaderID = @setId
		ORDER BY SortOrder, ID`,
		sql.Named("setId", setID),
	)
	if err != nil {
		return nil, fmt.Errorf("db.list_questions: %w", err)
	}
	defer rows.Close()

	questions = []model.QuestionSetQuestion{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("db.list_questions.scan: %w", err)
		}
		questions = append(questions, question)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_questions.rows: %w", err)
	}
	return questions, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int) (q model.QuestionSetQuestion, err error) {
	db, done, err := s.begin(ctx, "get_question")
	if err != nil {
		return q, err
	}
	defer done(&err)

	q, err = scanQuestion(db.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM QuestionSetQuestion
		WHERE ID = @id`,
		sql.Named("id", id),
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return q, notFoundf("question %d", id)
	case err != nil:
		return q, fmt.Errorf("db.get_question.scan: %w", err)
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int) (err error) {
	db, done, err := s.begin(ctx, "delete_question")
	if err != nil {
		return err
	}
	defer done(&err)

	res, err := db.ExecContext(ctx, `DELETE FROM QuestionSetQuestion WHERE ID = @id`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("db.delete_question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("question %d", id)
	}
	return nil
}

// ReplaceQuestions makes questions the complete question list of a question
// set, matching rows by field name. Either every change is applied or none.
func (s *Store) ReplaceQuestions(ctx context.Context, setID int, questions []model.QuestionSetQuestion) (err error) {
	if len(questions) == 0 {
		return invalidf("at least one question is required")
	}
	submitted := make(map[string]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		q.FieldName = strings.TrimSpace(q.FieldName)
		if q.FieldName == "" {
			return invalidf("question %d has no field name", i+1)
		}
		if submitted[q.FieldName] {
			return invalidf("duplicate field name %q", q.FieldName)
		}
		if q.SortOrder < 1 {
			return invalidf("sort order of %s must be positive", q.FieldName)
		}
		if !q.DisplayType.Valid() {
			return invalidf("invalid display type %q for %s", q.DisplayType, q.FieldName)
		}
		submitted[q.FieldName] = true
		q.QuestionSetHeaderID = setID
	}

	db, done, err := s.begin(ctx, "replace_questions")
	if err != nil {
		return err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.replace_questions.begin_tx: %w", err)
	}
	defer tx.Rollback()

	found, err := exists(ctx, tx, "QuestionSetHeader", setID)
	if err != nil {
		return fmt.Errorf("db.replace_questions.header: %w", err)
	}
	if !found {
		return notFoundf("question set %d", setID)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ID, FieldName
		FROM QuestionSetQuestion
		WHERE QuestionSetHeaderID = @setId`,
		sql.Named("setId", setID),
	)
	if err != nil {
		return fmt.Errorf("db.replace_questions.existing: %w", err)
	}
	existing := map[string]int{}
	for rows.Next() {
		var (
			id        int
			fieldName string
		)
		if err = rows.Scan(&id, &fieldName); err != nil {
			rows.Close()
			return fmt.Errorf("db.replace_questions.existing.scan: %w", err)
		}
		existing[fieldName] = id
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("db.replace_questions.existing.rows: %w", err)
	}

	for fieldName, id := range existing {
		if submitted[fieldName] {
			continue
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM QuestionSetQuestion WHERE ID = @id`, sql.Named("id", id)); err != nil {
			return fmt.Errorf("db.replace_questions.delete: %w", err)
		}
	}

	// move the surviving rows out of the way of the new sort orders
	_, err = tx.ExecContext(ctx, `
		UPDATE QuestionSetQuestion
		SET SortOrder = -SortOrder
		WHERE QuestionSetHeaderID = @setId AND SortOrder > 0`,
		sql.Named("setId", setID),
	)
	if err != nil {
		return fmt.Errorf("db.replace_questions.offset: %w", err)
	}

	insert := s.pool.Dialect().InsertReturningID(
		"QuestionSetQuestion",
		`QuestionSetHeaderID, FieldName, AttributeLabel, SurveyLabel, DisplayType,
		Choices, Description, Placeholder, MinValue, MaxValue, ColCount,
		IsReadOnly, IsVisible, IsRequired, IsBlind, MinIsCurrent, SortOrder`,
		`@setId, @fieldName, @attributeLabel, @surveyLabel, @displayType,
		@choices, @description, @placeholder, @minValue, @maxValue, @colCount,
		@isReadOnly, @isVisible, @isRequired, @isBlind, @minIsCurrent, @sortOrder`,
	)
	for _, q := range questions {
		args := questionArgs(q)
		if id, ok := existing[q.FieldName]; ok {
			_, err = tx.ExecContext(ctx, `
				UPDATE QuestionSetQuestion
				SET AttributeLabel = @attributeLabel, SurveyLabel = @surveyLabel, DisplayType = @displayType,
					Choices = @choices, Description = @description, Placeholder = @placeholder,
					MinValue = @minValue, MaxValue = @maxValue, ColCount = @colCount,
					IsReadOnly = @isReadOnly, IsVisible = @isVisible, IsRequired = @isRequired,
					IsBlind = @isBlind, MinIsCurrent = @minIsCurrent, SortOrder = @sortOrder
				WHERE ID = @id AND QuestionSetHeaderID = @setId AND FieldName = @fieldName`,
				append(args, sql.Named("id", id))...,
			)
			if err != nil {
				return fmt.Errorf("db.replace_questions.update: %w", err)
			}
			continue
		}

		var id int
		if err = tx.QueryRowContext(ctx, insert, args...).Scan(&id); err != nil {
			return fmt.Errorf("db.replace_questions.insert: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db.replace_questions.commit: %w", err)
	}
	return nil
}
