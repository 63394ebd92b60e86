// internal/domain/invoice/status.go
package invoice

// OrderStatus mirrors the marketplace's ordinal invoice lifecycle codes.
// The numeric values come off the wire as-is; they are compared against
// StatusPaid as a threshold, not treated as a chronological ordering
// (CANCELLED < PAID in magnitude does not mean "earlier").
type OrderStatus int

const (
	StatusCreated   OrderStatus = 1
	StatusCancelled OrderStatus = 2
	StatusPaid      OrderStatus = 3
	StatusCompleted OrderStatus = 4
	StatusReturned  OrderStatus = 5
)

// Actionable reports whether the order has reached the paid-or-later band.
func (s OrderStatus) Actionable() bool {
	return s >= StatusPaid
}

// AlertWorthy reports whether the order is in the one state that triggers
// an operator alert.
func (s OrderStatus) AlertWorthy() bool {
	return s == StatusPaid
}

func (s OrderStatus) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusPaid:
		return "PAID"
	case StatusCompleted:
		return "COMPLETED"
	case StatusReturned:
		return "RETURNED"
	default:
		return "UNKNOWN"
	}
}
