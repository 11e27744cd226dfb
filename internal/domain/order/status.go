package order

// Status is the lifecycle state of an order
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusInVerification Status = "IN_VERIFICATION"
	StatusPaid           Status = "PAID"
	StatusPreparing      Status = "PREPARING"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// AllStatuses lists statuses in lifecycle order
var AllStatuses = []Status{
	StatusPending, StatusInVerification, StatusPaid, StatusPreparing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// fulfilmentRank orders the operator-driven states; only forward moves are allowed
var fulfilmentRank = map[Status]int{
	StatusPaid:      1,
	StatusPreparing: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// CanTransitionTo checks a move against the order lifecycle:
//
//	PENDING         -> IN_VERIFICATION, PAID, CANCELLED
//	IN_VERIFICATION -> PAID, CANCELLED
//	PAID            -> PREPARING, SHIPPED, DELIVERED, CANCELLED
//	PREPARING       -> SHIPPED, DELIVERED, CANCELLED
//	SHIPPED         -> DELIVERED, CANCELLED
//	DELIVERED, CANCELLED are terminal
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == target || !target.IsValid() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return target == StatusInVerification || target == StatusPaid
	case StatusInVerification:
		return target == StatusPaid
	}
	from, okFrom := fulfilmentRank[s]
	to, okTo := fulfilmentRank[target]
	return okFrom && okTo && to > from
}

// IsSystemTransition reports whether the move is driven by payment outcome
// rather than by an operator.
func (s Status) IsSystemTransition(target Status) bool {
	switch target {
	case StatusInVerification:
		return s == StatusPending
	case StatusPaid:
		return s == StatusPending || s == StatusInVerification
	}
	return false
}

// AdminTargets lists the states an operator may move the order to from s.
// Payment-driven states are never offered.
func (s Status) AdminTargets() []Status {
	out := make([]Status, 0, 4)
	for _, target := range AllStatuses {
		if s.CanTransitionTo(target) && !s.IsSystemTransition(target) {
			out = append(out, target)
		}
	}
	return out
}
