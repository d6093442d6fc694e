package core

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Immutable once created: components
// exchange copies, never pointers into a shared history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
