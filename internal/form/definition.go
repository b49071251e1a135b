// Package form describes the fields a deployment collects. A Definition is
// loaded once at startup from YAML and is read-only afterwards.
package form

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parisxmas/vacancyform/internal/models"
)

type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextArea    FieldType = "textarea"
	TypeSelect      FieldType = "select"
	TypeMultiSelect FieldType = "multiselect"
	TypeNumber      FieldType = "number"
	TypeCheckbox    FieldType = "checkbox"
	TypeDate        FieldType = "date"
	TypeEmail       FieldType = "email"
)

// DefaultMaxLength applies to text, textarea and email fields that set no
// max_length. It is the largest value a spreadsheet cell holds.
const DefaultMaxLength = 32767

var knownTypes = map[FieldType]bool{
	TypeText: true, TypeTextArea: true, TypeSelect: true, TypeMultiSelect: true,
	TypeNumber: true, TypeCheckbox: true, TypeDate: true, TypeEmail: true,
}

// Field is one input control of the form.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label" json:"label"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required,omitempty"`
	Private     bool      `yaml:"private" json:"private,omitempty"`
	Placeholder string    `yaml:"placeholder" json:"placeholder,omitempty"`
	Options     []string  `yaml:"options" json:"options,omitempty"`
	Min         *float64  `yaml:"min" json:"min,omitempty"`
	Max         *float64  `yaml:"max" json:"max,omitempty"`
	// MaxLength caps free-text answers, in characters.
	MaxLength int `yaml:"max_length" json:"maxLength,omitempty"`
}

// HasOption reports whether v is one of the field's options.
func (f *Field) HasOption(v string) bool {
	for _, o := range f.Options {
		if o == v {
			return true
		}
	}
	return false
}

// Definition is the ordered field list of one deployment.
type Definition struct {
	Name           string   `yaml:"name" json:"name"`
	Title          string   `yaml:"title" json:"title"`
	Description    string   `yaml:"description" json:"description,omitempty"`
	FileNameFields []string `yaml:"filename_fields" json:"fileNameFields,omitempty"`
	SubjectField   string   `yaml:"subject_field" json:"subjectField,omitempty"`
	SenderField    string   `yaml:"sender_field" json:"senderField,omitempty"`
	Fields         []Field  `yaml:"fields" json:"fields"`
}

//go:embed job_vacancy.yaml
var defaultYAML []byte

// Default returns the built-in job vacancy form.
func Default() *Definition {
	def, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("form: embedded definition: %v", err))
	}
	return def
}

// Load reads a definition from path, or returns Default when path is empty.
func Load(path string) (*Definition, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("form: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("form: parse definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the definition for structural mistakes.
func (d *Definition) Validate() error {
	if len(d.Fields) == 0 {
		return errors.New("form: definition has no fields")
	}
	if d.Title == "" {
		d.Title = "Job Vacancy Details"
	}
	names := make(map[string]bool, len(d.Fields))
	labels := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Name == "" || f.Label == "" {
			return fmt.Errorf("form: field %d needs a name and a label", i+1)
		}
		if f.Type == "" {
			f.Type = TypeText
		}
		if !knownTypes[f.Type] {
			return fmt.Errorf("form: field %q has unknown type %q", f.Name, f.Type)
		}
		if names[f.Name] {
			return fmt.Errorf("form: duplicate field name %q", f.Name)
		}
		if labels[f.Label] {
			return fmt.Errorf("form: duplicate field label %q", f.Label)
		}
		if strings.EqualFold(f.Label, models.SubmissionDateLabel) {
			return fmt.Errorf("form: label %q is reserved", f.Label)
		}
		if f.MaxLength < 0 {
			return fmt.Errorf("form: field %q has a negative max_length", f.Name)
		}
		if f.MaxLength == 0 && (f.Type == TypeText || f.Type == TypeTextArea || f.Type == TypeEmail) {
			f.MaxLength = DefaultMaxLength
		}
		if (f.Type == TypeSelect || f.Type == TypeMultiSelect) && len(f.Options) == 0 {
			return fmt.Errorf("form: field %q needs options", f.Name)
		}
		names[f.Name] = true
		labels[f.Label] = true
	}
	for _, n := range d.FileNameFields {
		if !names[n] {
			return fmt.Errorf("form: filename field %q is not defined", n)
		}
	}
	for _, n := range []string{d.SubjectField, d.SenderField} {
		if n != "" && !names[n] {
			return fmt.Errorf("form: field %q is not defined", n)
		}
	}
	return nil
}

// Field returns the field called name, or nil.
func (d *Definition) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Label returns the label of field name, or "" if it does not exist.
func (d *Definition) Label(name string) string {
	if f := d.Field(name); f != nil {
		return f.Label
	}
	return ""
}

// PrivateLabels returns the labels kept out of rendered documents.
func (d *Definition) PrivateLabels() map[string]bool {
	out := map[string]bool{}
	for _, f := range d.Fields {
		if f.Private {
			out[f.Label] = true
		}
	}
	return out
}

