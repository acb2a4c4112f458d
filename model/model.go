package model

type DisplayType string

const (
	DisplayText     DisplayType = "text"
	DisplayTextarea DisplayType = "textarea"
	DisplayNumber   DisplayType = "number"
	DisplayDate     DisplayType = "date"
	DisplayDropdown DisplayType = "dropdown"
	DisplayRadio    DisplayType = "radio"
	DisplayCheckbox DisplayType = "checkbox"
)

// DisplayTypes lists every presentation type in selector order.
var DisplayTypes = []DisplayType{
	DisplayText,
	DisplayTextarea,
	DisplayNumber,
	DisplayDate,
	DisplayDropdown,
	DisplayRadio,
	DisplayCheckbox,
}

func (t DisplayType) Valid() bool {
	for _, known := range DisplayTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChoice reports whether the type renders a list of choices.
func (t DisplayType) IsChoice() bool {
	return t == DisplayDropdown || t == DisplayRadio || t == DisplayCheckbox
}

type QuestionSetHeader struct {
	ID             int    `json:"id"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	SourceViewName string `json:"sourceViewName" validate:"omitempty,identifier"`
	Subscript      string `json:"subscript"`
}

// QuestionSetQuestion is the persisted form of an enabled QuestionConfig.
type QuestionSetQuestion struct {
	ID                  int         `json:"id"`
	QuestionSetHeaderID int         `json:"questionSetHeaderId"`
	FieldName           string      `json:"fieldName"`
	AttributeLabel      string      `json:"attributeLabel"`
	SurveyLabel         string      `json:"surveyLabel"`
	DisplayType         DisplayType `json:"displayType"`
	Choices             string      `json:"choices,omitempty"`
	Description         string      `json:"description,omitempty"`
	Placeholder         string      `json:"placeholder,omitempty"`
	MinValue            *float64    `json:"minValue,omitempty"`
	MaxValue            *float64    `json:"maxValue,omitempty"`
	ColCount            *int        `json:"colCount,omitempty"`
	IsReadOnly          bool        `json:"isReadOnly"`
	IsVisible           bool        `json:"isVisible"`
	IsRequired          bool        `json:"isRequired"`
	IsBlind             bool        `json:"isBlind"`
	MinIsCurrent        bool        `json:"minIsCurrent"`
	SortOrder           int         `json:"sortOrder"`
}

// QuestionConfig is the working, editable unit of a question set: a persisted
// question, an inferred one, or both merged.
type QuestionConfig struct {
	FieldName      string        `json:"fieldName" validate:"required"`
	AttributeLabel string        `json:"attributeLabel"`
	SurveyLabel    string        `json:"surveyLabel"`
	DisplayType    DisplayType   `json:"displayType" validate:"displaytype"`
	Options        string        `json:"options,omitempty"`
	Description    string        `json:"description,omitempty"`
	Placeholder    string        `json:"placeholder,omitempty"`
	MinValue       *float64      `json:"minValue,omitempty"`
	MaxValue       *float64      `json:"maxValue,omitempty"`
	ColCount       *int          `json:"colCount,omitempty" validate:"omitempty,min=1"`
	IsReadOnly     bool          `json:"isReadOnly"`
	IsVisible      bool          `json:"isVisible"`
	IsRequired     bool          `json:"isRequired"`
	IsBlind        bool          `json:"isBlind"`
	MinIsCurrent   bool          `json:"minIsCurrent"`
	SortOrder      int           `json:"sortOrder" validate:"min=1"`
	IsEnabled      bool          `json:"isEnabled"`
	IsNewlyAdded   bool          `json:"isNewlyAdded"`
	IsOrphaned     bool          `json:"isOrphaned"`
	DisplayTypes   []DisplayType `json:"displayTypes,omitempty"`
}

// ConfigFromQuestion copies every persisted attribute of q into a config.
func ConfigFromQuestion(q QuestionSetQuestion) QuestionConfig {
	return QuestionConfig{
		FieldName:      q.FieldName,
		AttributeLabel: q.AttributeLabel,
		SurveyLabel:    q.SurveyLabel,
		DisplayType:    q.DisplayType,
		Options:        q.Choices,
		Description:    q.Description,
		Placeholder:    q.Placeholder,
		MinValue:       q.MinValue,
		MaxValue:       q.MaxValue,
		ColCount:       q.ColCount,
		IsReadOnly:     q.IsReadOnly,
		IsVisible:      q.IsVisible,
		IsRequired:     q.IsRequired,
		IsBlind:        q.IsBlind,
		MinIsCurrent:   q.MinIsCurrent,
		SortOrder:      q.SortOrder,
	}
}

// Question converts c into the row persisted for question set setID.
func (c QuestionConfig) Question(setID int) QuestionSetQuestion {
	return QuestionSetQuestion{
		QuestionSetHeaderID: setID,
		FieldName:           c.FieldName,
		AttributeLabel:      c.AttributeLabel,
		SurveyLabel:         c.SurveyLabel,
		DisplayType:         c.DisplayType,
		Choices:             c.Options,
		Description:         c.Description,
		Placeholder:         c.Placeholder,
		MinValue:            c.MinValue,
		MaxValue:            c.MaxValue,
		ColCount:            c.ColCount,
		IsReadOnly:          c.IsReadOnly,
		IsVisible:           c.IsVisible,
		IsRequired:          c.IsRequired,
		IsBlind:             c.IsBlind,
		MinIsCurrent:        c.MinIsCurrent,
		SortOrder:           c.SortOrder,
	}
}

type SurveyTemplateHeader struct {
	ID          int    `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	EntityType  string `json:"entityType"`
	PageSplit   string `json:"pageSplit"`
	IsActive    bool   `json:"isActive"`
}

// SurveyTemplateQuestion links a question set into a survey template.
type SurveyTemplateQuestion struct {
	ID                     int                `json:"id"`
	SurveyTemplateHeaderID int                `json:"surveyTemplateHeaderId"`
	QuestionSetHeaderID    int                `json:"questionSetHeaderId"`
	SortOrder              int                `json:"sortOrder"`
	IsActive               bool               `json:"isActive"`
	QuestionSetHeader      *QuestionSetHeader `json:"questionSetHeader,omitempty"`
	QuestionCount          int                `json:"questionCount"`
}

// AvailableQuestionSet is a question set not yet linked to a given template.
type AvailableQuestionSet struct {
	QuestionSetHeader
	QuestionCount int `json:"questionCount"`
}

// SourceField is one row of a question set's source view, keyed by the field
// identifier extracted from it. It is derived on every fetch and never stored.
type SourceField struct {
	FieldName   string `json:"fieldName"`
	Label       string `json:"label"`
	Options     string `json:"options,omitempty"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
	Row         Row    `json:"-"`
}

type ViewInfo struct {
	Name     string `json:"name"`
	Schema   string `json:"schema"`
	FullName string `json:"fullName"`
}

type ColumnInfo struct {
	Name         string `json:"columnName"`
	DatabaseType string `json:"dataType"`
	Nullable     bool   `json:"isNullable"`
	Position     int    `json:"ordinalPosition"`
}
