package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/survey-templates/app"
	"github.com/mbolis/survey-templates/config"
	"github.com/mbolis/survey-templates/database"
	"github.com/mbolis/survey-templates/model"
	"github.com/mbolis/survey-templates/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Addr: "127.0.0.1:0",
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			URL:          filepath.Join(t.TempDir(), "routes.sqlite"),
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	pool, err := database.NewPool(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	db, err := pool.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, config.DriverSQLite))

	return Wire(app.New(cfg, store.New(pool)))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type configureBody struct {
	QuestionSet model.QuestionSetHeader `json:"questionSet"`
	Questions   []model.QuestionConfig  `json:"questions"`
	Degraded    bool                    `json:"degraded"`
	Warning     string                  `json:"warning"`
}

func createSet(t *testing.T, h http.Handler, name, view string) model.QuestionSetHeader {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/questionsets", map[string]any{"name": name, "sourceViewName": view})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.QuestionSetHeader](t, rec)
}

func configure(t *testing.T, h http.Handler, id int) configureBody {
	t.Helper()
	rec := do(t, h, http.MethodGet, fmt.Sprintf("/api/questionsets/%d/configure", id), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[configureBody](t, rec)
}

func byField(configs []model.QuestionConfig, fieldName string) model.QuestionConfig {
	for _, c := range configs {
		if c.FieldName == fieldName {
			return c
		}
	}
	return model.QuestionConfig{}
}

// enableOnly saves configs with only the named fields enabled.
func enableOnly(t *testing.T, h http.Handler, id int, configs []model.QuestionConfig, fieldNames ...string) *httptest.ResponseRecorder {
	t.Helper()
	edited := make([]model.QuestionConfig, len(configs))
	for i, c := range configs {
		c.IsEnabled = false
		for _, name := range fieldNames {
			if c.FieldName == name {
				c.IsEnabled = true
			}
		}
		edited[i] = c
	}
	return do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d/questions", id), map[string]any{"questions": edited})
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodGet, "/api/questionsets", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qsurvey_http_requests_total")
	assert.Contains(t, rec.Body.String(), "qsurvey_store_queries_total")
}

func TestQuestionSetCRUDRoutes(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/questionsets", map[string]any{"name": "Bad", "sourceViewName": "vw Solar"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "identifier")

	rec = do(t, h, http.MethodPost, "/api/questionsets", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/questionsets", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	qs := createSet(t, h, "Solar", "vw_SolarAsset")
	assert.Equal(t, "Standard", qs.Subscript)

	rec = do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d", qs.ID), map[string]any{"description": "Panels"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Panels", decode[model.QuestionSetHeader](t, rec).Description)

	rec = do(t, h, http.MethodGet, "/api/questionsets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.QuestionSetHeader](t, rec)["questionSets"], 1)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/api/questionsets/%d", qs.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/questionsets/%d", qs.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/api/questionsets/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "non numeric ids do not match any route")
	assert.Equal(t, "/api/questionsets/abc not found", decode[map[string]string](t, rec)["error"])
}

func TestConfigureSaveAndRender(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")

	body := configure(t, h, qs.ID)
	assert.False(t, body.Degraded)
	assert.Empty(t, body.Warning)
	require.Len(t, body.Questions, 4)
	for _, c := range body.Questions {
		assert.True(t, c.IsNewlyAdded, c.FieldName)
		assert.False(t, c.IsEnabled, c.FieldName)
		assert.False(t, c.IsOrphaned, c.FieldName)
	}
	solar := byField(body.Questions, "solarType")
	assert.Equal(t, model.DisplayDropdown, solar.DisplayType)
	assert.Equal(t, 1, solar.SortOrder)
	assert.Equal(t, []model.DisplayType{model.DisplayDropdown, model.DisplayRadio, model.DisplayCheckbox}, solar.DisplayTypes)
	install := byField(body.Questions, "InstallDate")
	assert.Equal(t, []model.DisplayType{model.DisplayDate}, install.DisplayTypes)
	assert.Equal(t, model.DisplayDate, install.DisplayType)

	rec := enableOnly(t, h, qs.ID, body.Questions)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "nothing enabled")

	rec = enableOnly(t, h, qs.ID, body.Questions, "solarType")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[map[string][]model.QuestionSetQuestion](t, rec)["questions"]
	require.Len(t, saved, 1)
	assert.Equal(t, "solarType", saved[0].FieldName)
	assert.Contains(t, saved[0].Choices, "Hybrid")

	body = configure(t, h, qs.ID)
	require.Len(t, body.Questions, 4)
	solar = byField(body.Questions, "solarType")
	assert.True(t, solar.IsEnabled)
	assert.False(t, solar.IsNewlyAdded)
	assert.False(t, solar.IsOrphaned)
	assert.True(t, byField(body.Questions, "Notes").IsNewlyAdded)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/questionsets/%d/survey", qs.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	survey := decode[map[string]any](t, rec)
	assert.Equal(t, "Solar", survey["title"])
	pages := survey["pages"].([]any)
	require.Len(t, pages, 1)
	elements := pages[0].(map[string]any)["elements"].([]any)
	require.Len(t, elements, 1)
	element := elements[0].(map[string]any)
	assert.Equal(t, "dropdown", element["type"])
	assert.Equal(t, "solarType", element["name"])
	choices := element["choices"].([]any)
	require.Len(t, choices, 2)
	assert.Equal(t, "Hybrid", choices[0].(map[string]any)["text"])
	assert.EqualValues(t, 29, choices[0].(map[string]any)["value"])
}

func TestSaveValidation(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")
	configs := configure(t, h, qs.ID).Questions

	duplicateOrder := make([]model.QuestionConfig, len(configs))
	copy(duplicateOrder, configs)
	for i := range duplicateOrder {
		duplicateOrder[i].IsEnabled = true
		duplicateOrder[i].SortOrder = 1
	}
	rec := do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d/questions", qs.ID), map[string]any{"questions": duplicateOrder})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "sort order")

	badType := []model.QuestionConfig{{FieldName: "Notes", DisplayType: "email", SortOrder: 1, IsEnabled: true}}
	rec = do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d/questions", qs.ID), map[string]any{"questions": badType})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orphanOnly := []model.QuestionConfig{{FieldName: "Gone", DisplayType: model.DisplayText, SortOrder: 1, IsEnabled: true, IsOrphaned: true}}
	rec = do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d/questions", qs.ID), map[string]any{"questions": orphanOnly})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = enableOnly(t, h, qs.ID+1, configs, "Notes")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveRejectsDisallowedDisplayType(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")
	configs := configure(t, h, qs.ID).Questions
	require.Equal(t, []model.DisplayType{model.DisplayDate}, byField(configs, "InstallDate").DisplayTypes)

	withType := func(fieldName string, displayType model.DisplayType) []model.QuestionConfig {
		edited := make([]model.QuestionConfig, len(configs))
		copy(edited, configs)
		for i := range edited {
			edited[i].IsEnabled = edited[i].FieldName == fieldName
			if edited[i].FieldName == fieldName {
				edited[i].DisplayType = displayType
			}
		}
		return edited
	}
	path := fmt.Sprintf("/api/questionsets/%d/questions", qs.ID)

	tests := []struct {
		name        string
		fieldName   string
		displayType model.DisplayType
		status      int
	}{
		{"date field as radio", "InstallDate", model.DisplayRadio, http.StatusBadRequest},
		{"plain field as dropdown", "Notes", model.DisplayDropdown, http.StatusBadRequest},
		{"plain field as checkbox", "PanelCount", model.DisplayCheckbox, http.StatusBadRequest},
		{"lookup as text", "solarType", model.DisplayText, http.StatusBadRequest},
		{"lookup as radio", "solarType", model.DisplayRadio, http.StatusOK},
		{"plain field as textarea", "Notes", model.DisplayTextarea, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, path, map[string]any{"questions": withType(tt.fieldName, tt.displayType)})
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusBadRequest {
				assert.Contains(t, decode[map[string]string](t, rec)["error"], "not allowed")
			}
		})
	}

	rec := do(t, h, http.MethodPut, path, map[string]any{"questions": withType("InstallDate", model.DisplayRadio)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[map[string][]model.QuestionSetQuestion](t, rec)["questions"]
	require.Len(t, saved, 1)
	assert.Equal(t, "Notes", saved[0].FieldName, "a rejected save leaves the last saved configuration")
}

func TestConfigureDegraded(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")
	rec := enableOnly(t, h, qs.ID, configure(t, h, qs.ID).Questions, "solarType", "Notes")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, fmt.Sprintf("/api/questionsets/%d", qs.ID), map[string]any{"sourceViewName": "vw_Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := configure(t, h, qs.ID)
	assert.True(t, body.Degraded)
	assert.Contains(t, body.Warning, "vw_Renamed")
	require.Len(t, body.Questions, 2)
	for _, c := range body.Questions {
		assert.True(t, c.IsEnabled, c.FieldName)
		assert.False(t, c.IsOrphaned, c.FieldName)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/questionsets/%d/survey", qs.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, "saved configuration still renders")
}

func TestPreview(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")

	edited := []model.QuestionConfig{
		{FieldName: "PanelCount", SurveyLabel: "Panels", DisplayType: model.DisplayNumber, SortOrder: 2, IsEnabled: true, IsVisible: true},
		{FieldName: "Notes", DisplayType: model.DisplayTextarea, SortOrder: 1, IsEnabled: true, IsVisible: true},
		{FieldName: "solarType", DisplayType: model.DisplayDropdown, SortOrder: 3, IsEnabled: false, IsVisible: true},
	}
	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/questionsets/%d/survey/preview", qs.ID), map[string]any{"questions": edited})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	survey := decode[map[string]any](t, rec)
	elements := survey["pages"].([]any)[0].(map[string]any)["elements"].([]any)
	require.Len(t, elements, 2)
	assert.Equal(t, "comment", elements[0].(map[string]any)["type"])
	assert.Equal(t, "number", elements[1].(map[string]any)["inputType"])

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/questionsets/%d/questions", qs.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]model.QuestionSetQuestion](t, rec)["questions"], "preview does not save")
}

func TestQuestionRoutes(t *testing.T) {
	h := newTestHandler(t)
	qs := createSet(t, h, "Solar", "vw_SolarAsset")
	rec := enableOnly(t, h, qs.ID, configure(t, h, qs.ID).Questions, "Notes")
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[map[string][]model.QuestionSetQuestion](t, rec)["questions"]
	require.Len(t, saved, 1)

	path := fmt.Sprintf("/api/questions/%d", saved[0].ID)
	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Notes", decode[model.QuestionSetQuestion](t, rec).FieldName)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, path, nil).Code)
}

func TestSurveyTemplateRoutes(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/surveys", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/surveys", map[string]any{"name": "Inactive", "isActive": false})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[model.SurveyTemplateHeader](t, rec).IsActive)

	rec = do(t, h, http.MethodPost, "/api/surveys", map[string]any{"name": "Assets"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tmpl := decode[model.SurveyTemplateHeader](t, rec)
	assert.True(t, tmpl.IsActive)
	assert.Equal(t, "NONE", tmpl.PageSplit)
	assert.Equal(t, "Asset", tmpl.EntityType)

	solar := createSet(t, h, "Solar", "vw_SolarAsset")
	rec = enableOnly(t, h, solar.ID, configure(t, h, solar.ID).Questions, "solarType", "Notes")
	require.Equal(t, http.StatusOK, rec.Code)
	wind := createSet(t, h, "Wind", "")

	base := fmt.Sprintf("/api/surveys/%d", tmpl.ID)
	rec = do(t, h, http.MethodPost, base+"/questionsets", map[string]any{"questionSetHeaderId": solar.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	solarLink := decode[model.SurveyTemplateQuestion](t, rec)
	assert.Equal(t, 1, solarLink.SortOrder)

	rec = do(t, h, http.MethodPost, base+"/questionsets", map[string]any{"questionSetHeaderId": solar.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPost, base+"/questionsets", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/questionsets", map[string]any{"questionSetHeaderId": wind.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	windLink := decode[model.SurveyTemplateQuestion](t, rec)

	rec = do(t, h, http.MethodGet, base+"/available-questionsets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]model.AvailableQuestionSet](t, rec)["questionSets"])

	rec = do(t, h, http.MethodGet, base+"/survey", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	survey := decode[map[string]any](t, rec)
	assert.Equal(t, "Assets", survey["title"])
	pages := survey["pages"].([]any)
	require.Len(t, pages, 1)
	panels := pages[0].(map[string]any)["elements"].([]any)
	require.Len(t, panels, 1, "sets without questions are skipped")
	panel := panels[0].(map[string]any)
	assert.Equal(t, "panel", panel["type"])
	assert.Equal(t, fmt.Sprintf("questionSet%d", solar.ID), panel["name"])
	assert.Len(t, panel["elements"], 2)

	rec = do(t, h, http.MethodPut, base+"/questionsets/order", map[string]any{"linkIds": []int{windLink.ID, solarLink.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	links := decode[map[string][]model.SurveyTemplateQuestion](t, rec)["questionSets"]
	require.Len(t, links, 2)
	assert.Equal(t, wind.ID, links[0].QuestionSetHeaderID)
	assert.Equal(t, 1, links[0].SortOrder)
	assert.Equal(t, 2, links[1].QuestionCount)

	rec = do(t, h, http.MethodPut, base+"/questionsets/order", map[string]any{"linkIds": []int{windLink.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base, map[string]any{"name": "Assets", "pageSplit": "QUESTIONSET"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.SurveyTemplateHeader](t, rec).IsActive, "omitted isActive keeps the current value")

	rec = do(t, h, http.MethodGet, base+"/survey", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pages = decode[map[string]any](t, rec)["pages"].([]any)
	require.Len(t, pages, 1)
	assert.Equal(t, "page1", pages[0].(map[string]any)["name"])
	assert.Equal(t, "Solar", pages[0].(map[string]any)["title"])

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("%s/questionsets/%d", base, solarLink.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, base+"/questionsets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	links = decode[map[string][]model.SurveyTemplateQuestion](t, rec)["questionSets"]
	require.Len(t, links, 1)
	assert.Equal(t, 1, links[0].SortOrder)

	rec = do(t, h, http.MethodGet, base+"/survey", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[map[string]any](t, rec)["description"], "nothing renderable is explained")

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base+"/survey", nil).Code)
}

func TestViewRoutes(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[map[string][]model.ViewInfo](t, rec)["views"]
	require.Len(t, views, 1)
	assert.Equal(t, "vw_SolarAsset", views[0].Name)

	rec = do(t, h, http.MethodGet, "/api/views/vw_SolarAsset/columns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]model.ColumnInfo](t, rec)["columns"], 4)

	rec = do(t, h, http.MethodGet, "/api/views/vw_SolarAsset/rows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[map[string][]map[string]any](t, rec)["rows"]
	require.Len(t, rows, 4)
	assert.Equal(t, "solarType", rows[0]["FieldName"])
	assert.Nil(t, rows[1]["Options"])

	rec = do(t, h, http.MethodGet, "/api/views/vw-bad/rows", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
