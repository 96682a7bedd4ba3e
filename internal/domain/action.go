package domain

// Action identifies an auditable privileged operation. The set is closed;
// values are persisted verbatim in the logs table.
type Action string

const (
	ActionLogin     Action = "LOGIN"
	ActionSync      Action = "SYNC"
	ActionUpdate    Action = "UPDATE"
	ActionAdd       Action = "ADD"
	ActionAnonymize Action = "ANONYMIZE"
)

func (a Action) String() string { return string(a) }
