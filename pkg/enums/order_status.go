package enums

// OrderStatus is the five-valued status an order moves through. No ordering is
// enforced between the values; admin updates may set any of them.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusPaid      OrderStatus = "paid"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusShipped:   {},
	OrderStatusDelivered: {},
	OrderStatusCanceled:  {},
	OrderStatusPaid:      {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// OrderStatusValues lists the accepted literals, used in validation messages.
func OrderStatusValues() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
		OrderStatusPaid,
	}
}
