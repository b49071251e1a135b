package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parisxmas/vacancyform/internal/form"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Values holds raw submitted values keyed by field name. Multi-select fields
// carry one entry per chosen option.
type Values map[string][]string

// First returns the trimmed first value of name.
func (v Values) First(name string) string {
	if vals := v[name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// All returns the non-blank trimmed values of name.
func (v Values) All(name string) []string {
	var out []string
	for _, s := range v[name] {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValuesFromJSON flattens a JSON object into Values: lists become repeated
// values, true becomes "true" and false or null are dropped.
func ValuesFromJSON(data map[string]any) Values {
	values := Values{}
	for k, v := range data {
		switch t := v.(type) {
		case nil:
		case string:
			values[k] = []string{t}
		case bool:
			if t {
				values[k] = []string{"true"}
			}
		case float64:
			values[k] = []string{strconv.FormatFloat(t, 'f', -1, 64)}
		case []any:
			for _, item := range t {
				values[k] = append(values[k], fmt.Sprint(item))
			}
		default:
			values[k] = []string{fmt.Sprint(t)}
		}
	}
	return values
}

// Validate checks values against def. It returns nil or a *ValidationError.
func Validate(def *form.Definition, values Values) error {
	verr := &ValidationError{}
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Type == form.TypeMultiSelect {
			chosen := values.All(f.Name)
			if len(chosen) == 0 {
				if f.Required {
					verr.Missing = append(verr.Missing, f.Label)
				}
				continue
			}
			for _, c := range chosen {
				if !f.HasOption(c) {
					verr.Invalid = append(verr.Invalid, f.Label)
					break
				}
			}
			continue
		}
		if f.Type == form.TypeCheckbox {
			continue
		}

		val := values.First(f.Name)
		if val == "" {
			if f.Required {
				verr.Missing = append(verr.Missing, f.Label)
			}
			continue
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(val) > f.MaxLength {
			verr.Invalid = append(verr.Invalid, f.Label)
			continue
		}
		switch f.Type {
		case form.TypeEmail:
			if !emailPattern.MatchString(val) {
				verr.InvalidEmail = append(verr.InvalidEmail, f.Label)
			}
		case form.TypeNumber:
			if !validNumber(f, val) {
				verr.Invalid = append(verr.Invalid, f.Label)
			}
		case form.TypeDate:
			if _, err := time.Parse("2006-01-02", val); err != nil {
				verr.Invalid = append(verr.Invalid, f.Label)
			}
		case form.TypeSelect:
			if !f.HasOption(val) {
				verr.Invalid = append(verr.Invalid, f.Label)
			}
		}
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func validNumber(f *form.Field, val string) bool {
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return false
	}
	if f.Min != nil && n < *f.Min {
		return false
	}
	if f.Max != nil && n > *f.Max {
		return false
	}
	return true
}
