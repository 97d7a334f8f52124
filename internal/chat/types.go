package chat

var (
	ErrNameEmpty   = errorString("name_empty")
	ErrNameTaken   = errorString("name_taken")
	ErrNameTooLong = errorString("name_too_long")

	// ErrSlowConsumer is reported when a client's outbound queue overflows.
	ErrSlowConsumer = errorString("slow_consumer")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// State is the position of a Session in its lifecycle.
type State int32

const (
	StateAwaitingName State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingName:
		return "awaiting_name"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
