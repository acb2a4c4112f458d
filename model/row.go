package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single cell of a source view row, restricted to the scalar shapes
// a view can produce.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// Row is one untyped source view row, keyed by column name.
type Row map[string]Value

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Num: n, Str: strconv.FormatFloat(n, 'f', -1, 64)}
}

// ValueOf converts a value produced by a database/sql driver.
func ValueOf(src any) Value {
	switch t := src.(type) {
	case nil:
		return Value{}
	case string:
		return StringValue(t)
	case []byte:
		return StringValue(string(t))
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case int64:
		return Value{Kind: KindNumber, Num: float64(t), Str: strconv.FormatInt(t, 10)}
	case int:
		return Value{Kind: KindNumber, Num: float64(t), Str: strconv.Itoa(t)}
	case int32:
		return Value{Kind: KindNumber, Num: float64(t), Str: strconv.FormatInt(int64(t), 10)}
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case time.Time:
		return StringValue(t.Format(time.RFC3339))
	default:
		return StringValue(strings.TrimSpace(fmt.Sprint(src)))
	}
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsBlank reports whether v is null or an empty string.
func (v Value) IsBlank() bool {
	return v.Kind == KindNull || (v.Kind == KindString && v.Str == "")
}

func (v Value) String() string {
	switch v.Kind {
	case KindString, KindNumber:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}
