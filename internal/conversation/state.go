package conversation

// State is what kind of input the machine expects next from a user.
type State string

const (
	// StateNone means the user has no conversation; only /start is understood.
	StateNone State = ""
	// StateMenu waits for a menu button.
	StateMenu State = "menu"
	// StateAdd waits for an amount.
	StateAdd State = "add"
	// StateRemove waits for an expense id.
	StateRemove State = "remove"
	// StateTerminated is reported after /cancel; the session is dropped.
	StateTerminated State = "terminated"
)

func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	return string(s)
}
