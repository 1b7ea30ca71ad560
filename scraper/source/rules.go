// Package source parses the masterclass schedule published on the source
// site into masterclasses. What to read from the page is described by
// Rules, which can be replaced from a YAML file when the markup changes.
package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field types understood by the parser.
const (
	TypeString   = "string"
	TypeInteger  = "integer"
	TypeDateTime = "dateTime"
	TypeCurrency = "currency"
	TypeDuration = "duration"
)

// DefaultURL is the schedule page the update command reads.
const DefaultURL = "https://leonardo.ru/masterclasses/petersburg/"

// FieldRule says where one field lives inside a section and how to read it.
// An empty Selector means the section element itself. Attr reads an
// attribute instead of the text; the pseudo attribute "html" reads the
// inner HTML. Type is one of the Type* constants, string when empty.
// Format and TimeZone apply to dateTime fields.
type FieldRule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Format   string `yaml:"format,omitempty"`
	TimeZone string `yaml:"time_zone,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// Rules describe a schedule page: every element matching Sections is one
// masterclass, and Fields map model field names (the API's JSON names) to
// their rules. KeyField names the field that identifies a masterclass.
type Rules struct {
	Sections string               `yaml:"sections"`
	KeyField string               `yaml:"key_field"`
	Fields   map[string]FieldRule `yaml:"fields"`
}

// DefaultRules match the schedule page markup.
func DefaultRules() Rules {
	return Rules{
		Sections: ".mc-list .mc-item",
		KeyField: "uid",
		Fields: map[string]FieldRule{
			"uid":             {Attr: "data-id"},
			"title":           {Selector: ".mc-item__title"},
			"date":            {Selector: ".mc-item__date", Type: TypeDateTime, Format: "02.01.2006 15:04", TimeZone: "Europe/Moscow"},
			"duration":        {Selector: ".mc-item__duration", Type: TypeDuration, Optional: true},
			"age_restriction": {Selector: ".mc-item__age", Optional: true},
			"master":          {Selector: ".mc-item__master", Optional: true},
			"location":        {Selector: ".mc-item__location", Optional: true},
			"total_seats":     {Selector: ".mc-item__seats-total", Type: TypeInteger},
			"avail_seats":     {Selector: ".mc-item__seats-free", Type: TypeInteger},
			"price":           {Selector: ".mc-item__price", Type: TypeCurrency, Optional: true},
			"online_price":    {Selector: ".mc-item__price-online", Type: TypeCurrency, Optional: true},
			"complexity":      {Selector: ".mc-item__complexity", Attr: "data-value", Type: TypeInteger, Optional: true},
			"max_complexity":  {Selector: ".mc-item__complexity", Attr: "data-max", Type: TypeInteger, Optional: true},
			"description":     {Selector: ".mc-item__description", Attr: "html", Optional: true},
			"img_url":         {Selector: "img.mc-item__image", Attr: "src", Optional: true},
			"preview_img_url": {Selector: "img.mc-item__preview", Attr: "src", Optional: true},
		},
	}
}

// LoadRules reads rules from a YAML file. An empty path returns
// DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, rules.Validate()
}

// Validate checks that the rules can produce identifiable masterclasses.
func (r Rules) Validate() error {
	if r.Sections == "" {
		return fmt.Errorf("rules: sections selector is empty")
	}
	if r.KeyField == "" {
		return fmt.Errorf("rules: key_field is empty")
	}
	if _, ok := r.Fields[r.KeyField]; !ok {
		return fmt.Errorf("rules: key field %q has no rule", r.KeyField)
	}
	for name, f := range r.Fields {
		if _, ok := setters[name]; !ok {
			return fmt.Errorf("rules: unknown field %q", name)
		}
		switch f.Type {
		case "", TypeString, TypeInteger, TypeCurrency, TypeDuration:
		case TypeDateTime:
			if f.Format == "" {
				return fmt.Errorf("rules: field %q needs a format", name)
			}
		default:
			return fmt.Errorf("rules: field %q has unknown type %q", name, f.Type)
		}
	}
	return nil
}
