package session

// State is the lifecycle state of a session worker
type State int32

const (
	StateConnecting State = iota
	StateBackfilling
	StateLive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateBackfilling:
		return "backfilling"
	case StateLive:
		return "live"
	default:
		return "stopped"
	}
}
