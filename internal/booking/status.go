package booking

import "fmt"

type Status string

const (
	StatusOpen      Status = "Open"
	StatusClaimed   Status = "Claimed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusClaimed, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Paid is tracked separately and is not a state here.
var allowedTransitions = map[Status]map[Status]bool{
	StatusOpen:      {StatusClaimed: true, StatusCancelled: true},
	StatusClaimed:   {StatusOpen: true, StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}
