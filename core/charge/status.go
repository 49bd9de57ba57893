package charge

// Status enumerates the controller states exposed on the status entity.
type Status int

const (
	StatusUnknown Status = iota
	StatusDisabled
	StatusInactive
	StatusCalculating
	StatusCharging
	StatusStopped
	StatusComplete
	StatusNoSlots
	StatusError
)

// String returns the state string published for the status.
func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusInactive:
		return "inactive"
	case StatusCalculating:
		return "calculating"
	case StatusCharging:
		return "charging"
	case StatusStopped:
		return "stopped"
	case StatusComplete:
		return "complete"
	case StatusNoSlots:
		return "no slots"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseStatus maps a published state string back to its Status.
// Unrecognized strings map to StatusUnknown.
func ParseStatus(s string) Status {
	switch s {
	case "disabled":
		return StatusDisabled
	case "inactive":
		return StatusInactive
	case "calculating":
		return StatusCalculating
	case "charging":
		return StatusCharging
	case "stopped":
		return StatusStopped
	case "complete":
		return StatusComplete
	case "no slots":
		return StatusNoSlots
	case "error":
		return StatusError
	default:
		return StatusUnknown
	}
}
