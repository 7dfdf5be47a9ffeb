package blog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var validate = validator.New()

func init() {
	// report fields under their JSON names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// AuthorInput is the body of POST /author. Absent names are stored as "".
type AuthorInput struct {
	FirstName string `json:"firstName" validate:"max=255"`
	LastName  string `json:"lastName" validate:"max=255"`
}

// PostInput is the body of POST /post and POST /authors/{id}/post
type PostInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content"`
	AuthorID *int64 `json:"AuthorId" validate:"omitempty,gt=0"`
}

// DecodeForm fills the input from urlencoded form values
func (in *AuthorInput) DecodeForm(values url.Values) error {
	in.FirstName = values.Get("firstName")
	in.LastName = values.Get("lastName")
	return nil
}

// UnmarshalJSON accepts AuthorId as a number or a numeric string.
func (in *PostInput) UnmarshalJSON(data []byte) error {
	type plain PostInput
	aux := struct {
		*plain
		AuthorID json.RawMessage `json:"AuthorId"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.AuthorID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		in.AuthorID = nil
		return nil
	}
	value := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
	}
	id, err := coerceID("AuthorId", value)
	if err != nil {
		return err
	}
	in.AuthorID = id
	return nil
}

// DecodeForm fills the input from urlencoded form values
func (in *PostInput) DecodeForm(values url.Values) error {
	in.Title = values.Get("title")
	in.Content = values.Get("content")
	id, err := coerceID("AuthorId", values.Get("AuthorId"))
	if err != nil {
		return err
	}
	in.AuthorID = id
	return nil
}

// CoercionError reports a field whose value is not an integer
type CoercionError struct {
	Field string
	Value string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q must be an integer, got %q", e.Field, e.Value)
}

// coerceID converts a decimal integer such as "7", " 7 " or "7.0" into an id.
// An empty value means no id.
func coerceID(field, value string) (*int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, nil
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		sign, s = s[:1], s[1:]
	}
	// cast parses with base 0, so a leading zero would read as octal
	s = strings.TrimLeft(s, "0")
	if s == "" || s[0] == '.' {
		s = "0" + s
	}
	if !isDecimal(s) {
		return nil, &CoercionError{Field: field, Value: value}
	}

	n, err := cast.ToInt64E(strings.TrimPrefix(sign, "+") + s)
	if err != nil {
		return nil, &CoercionError{Field: field, Value: value}
	}
	return &n, nil
}

// isDecimal matches digits with an optional all-zero fraction
func isDecimal(s string) bool {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || strings.Trim(whole, "0123456789") != "" {
		return false
	}
	return !hasFrac || (frac != "" && strings.Trim(frac, "0") == "")
}

// ValidationError lists the rejected fields by JSON name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

var messages = map[string]string{
	"required": "The field '%s' is required.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"gt":       "The field '%s' must be greater than %s.",
}

func message(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

// Validate checks an input record against its validate tags
func Validate(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, e := range fieldErrs {
		verr.Fields[e.Field()] = message(e)
	}
	return verr
}
