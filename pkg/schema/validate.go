// Package schema validates, hashes and loads schema documents.
package schema

import (
	"fmt"
	"regexp"

	"github.com/leapstack-labs/boardkit/pkg/core"
)

var fieldIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks the structural well-formedness of a schema draft and
// returns every violation found. An empty result means the draft is valid.
func Validate(s *core.Schema) []string {
	if s == nil {
		return []string{"Schema must be an object."}
	}

	var errs []string
	if len(s.Fields) == 0 {
		errs = append(errs, "Schema must define at least one field.")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		name := f.ID
		if name == "" {
			name = fmt.Sprint(i)
		}

		switch {
		case f.ID == "":
			errs = append(errs, fmt.Sprintf("Field at index %d is missing an id.", i))
		case !fieldIDPattern.MatchString(f.ID):
			errs = append(errs, fmt.Sprintf("Field id %q may only contain letters, digits and underscores.", f.ID))
		case seen[f.ID]:
			errs = append(errs, fmt.Sprintf("Duplicate field id %q.", f.ID))
		default:
			seen[f.ID] = true
		}

		if f.Label == "" {
			errs = append(errs, fmt.Sprintf("Field %q is missing a label.", name))
		}
		if f.Type == "" {
			errs = append(errs, fmt.Sprintf("Field %q is missing a type.", name))
		} else if !f.Type.Valid() {
			errs = append(errs, fmt.Sprintf("Field %q has unsupported type %q.", name, f.Type))
		}

		errs = append(errs, validateTypeAttributes(f, name)...)
	}

	for _, id := range s.RequiredCoreFields {
		if s.Field(id) == nil {
			errs = append(errs, fmt.Sprintf("requiredCoreFields entry %q does not match any field.", id))
		}
	}

	if s.DefaultSort != nil {
		if s.DefaultSort.Field != "" && s.Field(s.DefaultSort.Field) == nil {
			errs = append(errs, fmt.Sprintf("defaultSort field %q does not match any field.", s.DefaultSort.Field))
		}
		if d := s.DefaultSort.Direction; d != "" && d != core.SortAsc && d != core.SortDesc {
			errs = append(errs, fmt.Sprintf("defaultSort direction %q must be asc or desc.", d))
		}
	}

	return errs
}

func validateTypeAttributes(f *core.FieldDefinition, name string) []string {
	var errs []string

	switch f.Type {
	case core.FieldNumber:
		if f.Min == nil || f.Max == nil {
			errs = append(errs, fmt.Sprintf("Number field %q must define numeric min and max values.", name))
		} else if *f.Min > *f.Max {
			errs = append(errs, fmt.Sprintf("Number field %q has min greater than max.", name))
		}
	case core.FieldEnum, core.FieldMultiSelect:
		if len(f.Options) == 0 {
			errs = append(errs, fmt.Sprintf("Field %q must include options.", name))
		}
	case core.FieldList:
		if f.ItemType == "" {
			errs = append(errs, fmt.Sprintf("List field %q must define itemType.", name))
		} else if !f.ItemType.Valid() {
			errs = append(errs, fmt.Sprintf("List field %q has unsupported itemType %q.", name, f.ItemType))
		}
	case core.FieldString, core.FieldText, core.FieldURL:
		if f.MaxLength < 0 {
			errs = append(errs, fmt.Sprintf("Field %q has a negative maxLength.", name))
		}
	}

	if f.Radar {
		if f.Type != core.FieldNumber {
			errs = append(errs, fmt.Sprintf("Radar field %q must be a number field.", name))
		}
		if !f.BoardAggregate.Valid() {
			errs = append(errs, fmt.Sprintf("Radar field %q must declare boardAggregate as sum, mean or max.", name))
		}
	}

	return errs
}
