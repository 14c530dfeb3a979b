package orders

import "laundry-client/src/models"

// DashboardStats is the staff dashboard aggregate: order counts bucketed
// by workflow stage.
type DashboardStats struct {
	ToPickup  int
	InTransit int
	ToDeliver int
	Completed int
}

// Stats buckets an order set for the staff dashboard.
func Stats(orders []models.Order) DashboardStats {
	var stats DashboardStats
	for _, o := range orders {
		switch o.OrderStatus {
		case models.StatusOrderConfirmed:
			stats.ToPickup++
		case models.StatusOutForPickup, models.StatusPickedUp:
			stats.InTransit++
		case models.StatusOutForDelivery:
			stats.ToDeliver++
		case models.StatusDelivered:
			stats.Completed++
		}
	}
	return stats
}

// FilterByStatus returns the orders matching status; an empty status
// returns the input unchanged (the "All" filter).
func FilterByStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	if status == "" {
		return orders
	}
	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.OrderStatus == status {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Active returns the orders that still need staff attention, newest first
// up to limit, for the dashboard's recent-orders panel.
func Active(orders []models.Order, limit int) []models.Order {
	active := make([]models.Order, 0, limit)
	for _, o := range orders {
		if o.OrderStatus == models.StatusCancelled {
			continue
		}
		active = append(active, o)
		if len(active) == limit {
			break
		}
	}
	return active
}
