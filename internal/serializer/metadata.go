package serializer

// Choice is one accepted value of a choice field.
type Choice struct {
	Value       string `json:"value" yaml:"value"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// FieldInfo describes a field in the metadata document.
type FieldInfo struct {
	Type     string               `json:"type" yaml:"type"`
	Required *bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Label    string               `json:"label" yaml:"label"`
	Default  any                  `json:"default,omitempty" yaml:"default,omitempty"`
	Choices  []Choice             `json:"choices,omitempty" yaml:"choices,omitempty"`
	Children map[string]FieldInfo `json:"children,omitempty" yaml:"children,omitempty"`
}

// Info is the field schema split into what clients send and what they receive.
type Info struct {
	Request  map[string]FieldInfo `json:"request" yaml:"request"`
	Response map[string]FieldInfo `json:"response" yaml:"response"`
}

// Metadata derives the request and response shapes from the field table.
// Requests list the fields writable on create with their requirements;
// responses list every field without them.
func Metadata() Info {
	return Info{
		Request:  describe(fields, true),
		Response: describe(fields, false),
	}
}

func describe(list []Field, request bool) map[string]FieldInfo {
	out := make(map[string]FieldInfo, len(list))
	for _, f := range list {
		if request && !ViewFull.Writable(f) {
			continue
		}
		info := FieldInfo{Type: string(f.Kind), Label: f.Label}
		if request {
			required := ViewFull.Required(f)
			info.Required = &required
			info.Default = f.Default
		}
		for _, c := range f.Choices {
			info.Choices = append(info.Choices, Choice{Value: c, DisplayName: c})
		}
		if len(f.Children) > 0 {
			info.Children = describe(f.Children, request)
		}
		out[f.Name] = info
	}
	return out
}
