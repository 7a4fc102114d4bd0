package entity

// Op names a store mutation for change notifications.
type Op string

const (
	OpCreate  Op = "CREATE"
	OpUpdate  Op = "UPDATE"
	OpPatch   Op = "PATCH"
	OpReplace Op = "REPLACE"
	OpDelete  Op = "DELETE"
)

// ChangeEvent is published after every successful store mutation.
// ID is empty for singular-resource mutations.
type ChangeEvent struct {
	Op       Op
	Resource string
	ID       string
}
