package core

// SortDirection orders records by the default sort field.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is the schema's default record ordering.
type SortSpec struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// ImageSpec describes the raster every card image is framed into.
type ImageSpec struct {
	Format       string `json:"format" yaml:"format"`
	Width        int    `json:"width" yaml:"width"`
	Height       int    `json:"height" yaml:"height"`
	AlphaAllowed bool   `json:"alphaAllowed" yaml:"alphaAllowed"`
}

// Schema is the ordered field collection plus metadata governing record shape.
type Schema struct {
	SchemaName    string     `json:"schemaName,omitempty" yaml:"schemaName,omitempty"`
	SchemaVersion string     `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
	SchemaID      string     `json:"schemaId,omitempty" yaml:"schemaId,omitempty"`
	ImageSpec     *ImageSpec `json:"imageSpec,omitempty" yaml:"imageSpec,omitempty"`

	Fields             []FieldDefinition `json:"fields" yaml:"fields"`
	RequiredCoreFields []string          `json:"requiredCoreFields,omitempty" yaml:"requiredCoreFields,omitempty"`
	DefaultSort        *SortSpec         `json:"defaultSort,omitempty" yaml:"defaultSort,omitempty"`
}

// Field returns the field with the given id, or nil.
func (s *Schema) Field(id string) *FieldDefinition {
	if s == nil {
		return nil
	}
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i]
		}
	}
	return nil
}

// IsRequiredCore reports whether id is listed in RequiredCoreFields.
func (s *Schema) IsRequiredCore(id string) bool {
	for _, coreID := range s.RequiredCoreFields {
		if coreID == id {
			return true
		}
	}
	return false
}

// RadarFields returns the number fields shown on the board radar, in order.
func (s *Schema) RadarFields() []FieldDefinition {
	var out []FieldDefinition
	for _, f := range s.Fields {
		if f.Radar && f.Type == FieldNumber {
			out = append(out, f)
		}
	}
	return out
}
