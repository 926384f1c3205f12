package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var knownStatuses = map[Status]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

func (s Status) Valid() bool { return knownStatuses[s] }

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &InvalidStatusError{Value: s}
	}
	return st, nil
}

// RestoresStock reports whether moving from -> to must credit stock back.
// Only the pending -> cancelled edge does; restoring on any other edge would
// double-credit inventory.
func RestoresStock(from, to Status) bool {
	return from == StatusPending && to == StatusCancelled
}
