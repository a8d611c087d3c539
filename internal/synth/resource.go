// File: internal/synth/resource.go
// Brief: Resource declarations and removal policies.

package synth

// RemovalPolicy controls what the provisioning engine does with the live
// resource when its owning stack is destroyed.
type RemovalPolicy string

const (
	// RemovalPolicyDestroy deletes the resource with the stack.
	RemovalPolicyDestroy RemovalPolicy = "Delete"
	// RemovalPolicyRetain orphans the resource instead of deleting it.
	RemovalPolicyRetain RemovalPolicy = "Retain"
)

// Resource describes one external artifact to provision: its type, its
// property tree, and its removal policy. Nothing is created until the
// engine applies the synthesized plan.
type Resource struct {
	LogicalID  string
	Type       string
	Properties map[string]any
	Removal    RemovalPolicy
	dependsOn  []string
}

// WithRemovalPolicy sets the removal policy and returns the resource for
// chaining in declaration code.
func (r *Resource) WithRemovalPolicy(p RemovalPolicy) *Resource {
	r.Removal = p
	return r
}

// After records an intra-stack ordering constraint on another logical id.
func (r *Resource) After(logicalID string) *Resource {
	r.dependsOn = append(r.dependsOn, logicalID)
	return r
}

type resourceBody struct {
	Type           string         `json:"Type"`
	Properties     map[string]any `json:"Properties,omitempty"`
	DependsOn      []string       `json:"DependsOn,omitempty"`
	DeletionPolicy string         `json:"DeletionPolicy,omitempty"`
}

func (r *Resource) body() *resourceBody {
	return &resourceBody{
		Type:           r.Type,
		Properties:     r.Properties,
		DependsOn:      r.dependsOn,
		DeletionPolicy: string(r.Removal),
	}
}
