package models

// Group is a named partition of tasks. Name is the canonical key the client
// joins against Task.Group; some backend variants also return an opaque id,
// which is carried along but never used for matching.
type Group struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}
