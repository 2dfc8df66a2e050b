package conversation

import "fmt"

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	// EventCommand is a slash command such as /start.
	EventCommand EventKind = iota + 1
	// EventText is a free-text message.
	EventText
	// EventCallback is an inline button press.
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Command names understood by the machine.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// Event is one inbound update. Name holds the command name or callback tag;
// Text holds the message body of text events.
type Event struct {
	Kind EventKind
	Name string
	Text string
}

// Command builds a command event; a leading slash is ignored.
func Command(name string) Event {
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return Event{Kind: EventCommand, Name: name}
}

// Text builds a free-text event.
func Text(body string) Event {
	return Event{Kind: EventText, Text: body}
}

// Callback builds a button press event carrying tag.
func Callback(tag string) Event {
	return Event{Kind: EventCallback, Name: tag}
}
