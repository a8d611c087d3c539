// File: internal/synth/intrinsics.go
// Brief: Template intrinsic values (Ref, GetAtt, Sub, Join).

package synth

import "encoding/json"

// Ref resolves to the named logical resource (or pseudo parameter) at apply
// time.
type Ref struct {
	LogicalID string
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": r.LogicalID})
}

// GetAtt resolves to an attribute of a declared resource at apply time.
type GetAtt struct {
	LogicalID string
	Attribute string
}

func (g GetAtt) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{"Fn::GetAtt": {g.LogicalID, g.Attribute}})
}

// Sub performs ${...} substitution over a template string at apply time.
type Sub struct {
	Template string
}

func (s Sub) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Fn::Sub": s.Template})
}

// Select picks one element of a list value at apply time.
type Select struct {
	Index int
	Of    any
}

func (s Select) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]any{"Fn::Select": {s.Index, s.Of}})
}

// GetAZs resolves to the list of availability zones of the target region.
type GetAZs struct{}

func (GetAZs) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Fn::GetAZs": ""})
}

// Join concatenates values with a delimiter at apply time.
type Join struct {
	Delimiter string
	Values    []any
}

func (j Join) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]any{"Fn::Join": {j.Delimiter, j.Values}})
}
