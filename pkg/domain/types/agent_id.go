package types

// AgentID identifies an agent on the platform. The API returns numeric
// identifiers, but they are opaque to this system and normalized to their
// decimal string form at the parse boundary.
type AgentID string

// String returns the string representation of AgentID
func (id AgentID) String() string {
	return string(id)
}

// IsValid checks if the AgentID is usable as a merge key
func (id AgentID) IsValid() bool {
	return id != "" && id != "0"
}
