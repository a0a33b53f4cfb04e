package props

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoScenes is returned when props contain no media.
	ErrNoScenes = errors.New("at least one scene (media) is required")
	// ErrMissingScript is returned when a scene has neither script text nor url.
	ErrMissingScript = errors.New("script.text or script.url is required")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError is returned when props fail schema validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid props: " + strings.Join(msgs, "; ")
}

// Validator checks props against the schema tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a validator that reports JSON field paths.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns a *ValidationError listing every rejected field.
func (v *Validator) Validate(p *VideoProps) error {
	if p == nil {
		return &ValidationError{Fields: []FieldError{{Field: "props", Tag: "required", Message: "props are required"}}}
	}
	err := v.v.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate props: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) FieldError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "oneof":
		msg = fmt.Sprintf("%s: %q is not one of [%s]", field, fmt.Sprint(fe.Value()), fe.Param())
	case "required_without":
		msg = fmt.Sprintf("%s: script object must have either 'text' or 'url'", field)
	default:
		msg = fmt.Sprintf("Field '%s' failed on the '%s' tag", field, fe.Tag())
	}
	return FieldError{Field: field, Tag: fe.Tag(), Param: fe.Param(), Message: msg}
}

// CheckRenderable verifies the minimum a render needs: at least one scene
// and script content for each.
func CheckRenderable(p *VideoProps) error {
	if p == nil || len(p.Media) == 0 {
		return ErrNoScenes
	}
	for i, s := range p.Media {
		if s.Script.Text == "" && s.Script.URL == "" {
			return fmt.Errorf("scene %d: %w", i+1, ErrMissingScript)
		}
	}
	return nil
}
