package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/mbolis/survey-templates/model"
)

// ListLinks returns the question sets linked to a template, in sort order,
// each with its header and number of visible questions.
func (s *Store) ListLinks(ctx context.Context, templateID int) (links []model.SurveyTemplateQuestion, err error) {
	db, done, err := s.begin(ctx, "list_links")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	found, err := exists(ctx, db, "SurveyTemplateHeader", templateID)
	if err != nil {
		return nil, fmt.Errorf("db.list_links.header: %w", err)
	}
	if !found {
		return nil, notFoundf("survey %d", templateID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			stq.ID, stq.SurveyTemplateHeaderID, stq.QuestionSetHeaderID, stq.SortOrder, stq.IsActive,
			qsh.Name, qsh.Description, qsh.SourceViewName, qsh.Subscript,
			(SELECT COUNT(*) FROM QuestionSetQuestion qsq
				WHERE qsq.QuestionSetHeaderID = stq.QuestionSetHeaderID AND qsq.IsVisible = 1)
		FROM SurveyTemplateQuestion stq
		LEFT JOIN QuestionSetHeader qsh ON stq.QuestionSetHeaderID = qsh.ID
		WHERE stq.SurveyTemplateHeaderID = @templateId
		ORDER BY stq.SortOrder, stq.ID`,
		sql.Named("templateId", templateID),
	)
	if err != nil {
		return nil, fmt.Errorf("db.list_links: %w", err)
	}
	defer rows.Close()

	links = []model.SurveyTemplateQuestion{}
	for rows.Next() {
		var (
			link                               model.SurveyTemplateQuestion
			name, description, view, subscript sql.NullString
		)
		err = rows.Scan(
			&link.ID, &link.SurveyTemplateHeaderID, &link.QuestionSetHeaderID, &link.SortOrder, &link.IsActive,
			&name, &description, &view, &subscript,
			&link.QuestionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("db.list_links.scan: %w", err)
		}
		if name.Valid {
			link.QuestionSetHeader = &model.QuestionSetHeader{
				ID:             link.QuestionSetHeaderID,
				Name:           name.String,
				Description:    description.String,
				SourceViewName: view.String,
				Subscript:      subscript.String,
			}
		}
		links = append(links, link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_links.rows: %w", err)
	}
	return links, nil
}

// AvailableQuestionSets lists the question sets not actively linked to a
// template, by name.
func (s *Store) AvailableQuestionSets(ctx context.Context, templateID int) (sets []model.AvailableQuestionSet, err error) {
	db, done, err := s.begin(ctx, "available_question_sets")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	found, err := exists(ctx, db, "SurveyTemplateHeader", templateID)
	if err != nil {
		return nil, fmt.Errorf("db.available_question_sets.header: %w", err)
	}
	if !found {
		return nil, notFoundf("survey %d", templateID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			qsh.ID, qsh.Name, qsh.Description, qsh.SourceViewName, qsh.Subscript,
			(SELECT COUNT(*) FROM QuestionSetQuestion qsq
				WHERE qsq.QuestionSetHeaderID = qsh.ID AND qsq.IsVisible = 1)
		FROM QuestionSetHeader qsh
		WHERE qsh.ID NOT IN (
			SELECT stq.QuestionSetHeaderID
			FROM SurveyTemplateQuestion stq
			WHERE stq.SurveyTemplateHeaderID = @templateId AND stq.IsActive = 1
		)
		ORDER BY qsh.Name, qsh.ID`,
		sql.Named("templateId", templateID),
	)
	if err != nil {
		return nil, fmt.Errorf("db.available_question_sets: %w", err)
	}
	defer rows.Close()

	sets = []model.AvailableQuestionSet{}
	for rows.Next() {
		var (
			set                          model.AvailableQuestionSet
			description, view, subscript sql.NullString
		)
		err = rows.Scan(&set.ID, &set.Name, &description, &view, &subscript, &set.QuestionCount)
		if err != nil {
			return nil, fmt.Errorf("db.available_question_sets.scan: %w", err)
		}
		set.Description = description.String
		set.SourceViewName = view.String
		set.Subscript = subscript.String
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.available_question_sets.rows: %w", err)
	}
	return sets, nil
}

// AddLink appends a question set to a template. A question set can be linked
// at most once while active.
func (s *Store) AddLink(ctx context.Context, templateID, setID int) (link model.SurveyTemplateQuestion, err error) {
	db, done, err := s.begin(ctx, "add_link")
	if err != nil {
		return link, err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return link, fmt.Errorf("db.add_link.begin_tx: %w", err)
	}
	defer tx.Rollback()

	for _, check := range []struct {
		table, what string
		id          int
	}{
		{"SurveyTemplateHeader", "survey", templateID},
		{"QuestionSetHeader", "question set", setID},
	} {
		found, err := exists(ctx, tx, check.table, check.id)
		if err != nil {
			return link, fmt.Errorf("db.add_link.exists: %w", err)
		}
		if !found {
			return link, notFoundf("%s %d", check.what, check.id)
		}
	}

	var active int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM SurveyTemplateQuestion
		WHERE SurveyTemplateHeaderID = @templateId AND QuestionSetHeaderID = @setId AND IsActive = 1`,
		sql.Named("templateId", templateID),
		sql.Named("setId", setID),
	).Scan(&active)
	if err != nil {
		return link, fmt.Errorf("db.add_link.check: %w", err)
	}
	if active > 0 {
		return link, fmt.Errorf("%w: question set %d is already assigned to survey %d", ErrConflict, setID, templateID)
	}

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(SortOrder), 0) + 1
		FROM SurveyTemplateQuestion
		WHERE SurveyTemplateHeaderID = @templateId`,
		sql.Named("templateId", templateID),
	).Scan(&next)
	if err != nil {
		return link, fmt.Errorf("db.add_link.next_sort_order: %w", err)
	}

	link = model.SurveyTemplateQuestion{
		SurveyTemplateHeaderID: templateID,
		QuestionSetHeaderID:    setID,
		SortOrder:              next,
		IsActive:               true,
	}
	query := s.pool.Dialect().InsertReturningID(
		"SurveyTemplateQuestion",
		"SurveyTemplateHeaderID, QuestionSetHeaderID, SortOrder, IsActive",
		"@templateId, @setId, @sortOrder, @isActive",
	)
	err = tx.QueryRowContext(ctx, query,
		sql.Named("templateId", templateID),
		sql.Named("setId", setID),
		sql.Named("sortOrder", next),
		sql.Named("isActive", true),
	).Scan(&link.ID)
	if err != nil {
		return link, fmt.Errorf("db.add_link.insert: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return link, fmt.Errorf("db.add_link.commit: %w", err)
	}
	return link, nil
}

// RemoveLink unlinks a question set from a template and renumbers the rest.
func (s *Store) RemoveLink(ctx context.Context, templateID, linkID int) (err error) {
	db, done, err := s.begin(ctx, "remove_link")
	if err != nil {
		return err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.remove_link.begin_tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM SurveyTemplateQuestion
		WHERE ID = @id AND SurveyTemplateHeaderID = @templateId`,
		sql.Named("id", linkID),
		sql.Named("templateId", templateID),
	)
	if err != nil {
		return fmt.Errorf("db.remove_link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFoundf("link %d of survey %d", linkID, templateID)
	}

	if err = densifyLinks(ctx, tx, templateID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db.remove_link.commit: %w", err)
	}
	return nil
}

// ReorderLinks gives the links of a template the order of linkIDs, which must
// list every link of the template exactly once.
func (s *Store) ReorderLinks(ctx context.Context, templateID int, linkIDs []int) (err error) {
	db, done, err := s.begin(ctx, "reorder_links")
	if err != nil {
		return err
	}
	defer done(&err)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.reorder_links.begin_tx: %w", err)
	}
	defer tx.Rollback()

	found, err := exists(ctx, tx, "SurveyTemplateHeader", templateID)
	if err != nil {
		return fmt.Errorf("db.reorder_links.header: %w", err)
	}
	if !found {
		return notFoundf("survey %d", templateID)
	}

	current, err := linkIDsInOrder(ctx, tx, templateID)
	if err != nil {
		return err
	}
	if len(current) != len(linkIDs) {
		return invalidf("expected %d link ids, got %d", len(current), len(linkIDs))
	}
	sorted := slices.Clone(linkIDs)
	slices.Sort(sorted)
	slices.Sort(current)
	if !slices.Equal(sorted, current) {
		return invalidf("link ids do not match the links of survey %d", templateID)
	}

	if err = applyLinkOrder(ctx, tx, templateID, linkIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db.reorder_links.commit: %w", err)
	}
	return nil
}

func linkIDsInOrder(ctx context.Context, tx *sql.Tx, templateID int) ([]int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT ID
		FROM SurveyTemplateQuestion
		WHERE SurveyTemplateHeaderID = @templateId
		ORDER BY SortOrder, ID`,
		sql.Named("templateId", templateID),
	)
	if err != nil {
		return nil, fmt.Errorf("db.links.ids: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db.links.ids.scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.links.ids.rows: %w", err)
	}
	return ids, nil
}

// densifyLinks renumbers the links of a template 1..n keeping their order.
func densifyLinks(ctx context.Context, tx *sql.Tx, templateID int) error {
	ids, err := linkIDsInOrder(ctx, tx, templateID)
	if err != nil {
		return err
	}
	return applyLinkOrder(ctx, tx, templateID, ids)
}

func applyLinkOrder(ctx context.Context, tx *sql.Tx, templateID int, ids []int) error {
	// move every link into a negative range first so that no intermediate
	// state violates the unique sort order index
	_, err := tx.ExecContext(ctx, `
		UPDATE SurveyTemplateQuestion
		SET SortOrder = -SortOrder - 1000
		WHERE SurveyTemplateHeaderID = @templateId`,
		sql.Named("templateId", templateID),
	)
	if err != nil {
		return fmt.Errorf("db.links.offset: %w", err)
	}

	for i, id := range ids {
		_, err = tx.ExecContext(ctx, `
			UPDATE SurveyTemplateQuestion
			SET SortOrder = @sortOrder
			WHERE ID = @id AND SurveyTemplateHeaderID = @templateId`,
			sql.Named("sortOrder", i+1),
			sql.Named("id", id),
			sql.Named("templateId", templateID),
		)
		if err != nil {
			return fmt.Errorf("db.links.sort_order: %w", err)
		}
	}
	return nil
}
