package ports

// Actor identifies who triggered an operation.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// String is the identity stamped on writes.
func (a Actor) String() string {
	if a.Name != "" {
		return a.Name
	}
	if a.ID != "" {
		return a.ID
	}
	return "system"
}

// ActivityLogger records user activity. Log never blocks on the sink and
// never reports failures.
type ActivityLogger interface {
	Log(event string, actor Actor, data map[string]any)
}
