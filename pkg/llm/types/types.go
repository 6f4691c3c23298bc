package types

// Role tags one conversation turn for multi-turn generation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged entry in a multi-turn generation request.
type Turn struct {
	Role    Role
	Content string
}

// Prompt is a system+user prompt pair with an optional persona override.
// A non-blank Persona is injected as the identity layer ahead of System.
type Prompt struct {
	Persona string
	System  string
	User    string
}

// AvailableModel is a vendor-reported model usable with a given credential.
type AvailableModel struct {
	ID   string
	Name string
}
