package orders

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"laundry-client/src/models"
)

// Polling intervals for the three views that keep order state current.
const (
	CustomerPollInterval  = 5 * time.Second
	StaffListPollInterval = 60 * time.Second
	DashboardPollInterval = 120 * time.Second
)

// FetchFunc loads the full order set a view is watching.
type FetchFunc func(ctx context.Context) ([]models.Order, error)

// Watcher keeps a view's order set current by re-fetching on a fixed
// interval and reconciling by order id. It lives for the lifetime of the
// view's context: cancelling the context stops the ticker, closes the
// update channel, and drops any late fetch result.
type Watcher struct {
	fetch    FetchFunc
	interval time.Duration
	log      *logrus.Logger

	known   map[int]models.Order
	updates chan []models.Order
}

// NewWatcher creates a watcher over fetch, seeded with the view's initial
// order set (which may be nil).
func NewWatcher(fetch FetchFunc, interval time.Duration, seed []models.Order, log *logrus.Logger) *Watcher {
	if log == nil {
		log = logrus.New()
	}
	w := &Watcher{
		fetch:    fetch,
		interval: interval,
		log:      log,
		known:    make(map[int]models.Order),
		updates:  make(chan []models.Order, 1),
	}
	for _, o := range seed {
		w.known[o.OrderID] = o
	}
	return w
}

// Updates delivers a snapshot of the reconciled order set after each
// successful poll. The channel is closed when the watcher stops.
func (w *Watcher) Updates() <-chan []models.Order {
	return w.updates
}

// Run polls until ctx is cancelled. Fetch errors are logged and the
// previous state kept; the next tick tries again.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.updates)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fetched, err := w.fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.WithError(err).Warn("Order poll failed")
				continue
			}
			if ctx.Err() != nil {
				// View tore down while the fetch was in flight.
				return
			}
			snapshot := w.reconcile(fetched)
			select {
			case w.updates <- snapshot:
			case <-ctx.Done():
				return
			default:
				// Consumer still holds the previous snapshot; replace it.
				select {
				case <-w.updates:
				default:
				}
				w.updates <- snapshot
			}
		}
	}
}

// reconcile merges a fetched order set into the known set, matching on
// order id. Observed statuses are monotonic: a fetched status that sits
// earlier in the forward chain than the known one is ignored, so the
// client never moves an order backward.
func (w *Watcher) reconcile(fetched []models.Order) []models.Order {
	snapshot := make([]models.Order, 0, len(fetched))
	for _, next := range fetched {
		if prev, ok := w.known[next.OrderID]; ok && regressed(prev.OrderStatus, next.OrderStatus) {
			next.OrderStatus = prev.OrderStatus
		}
		w.known[next.OrderID] = next
		snapshot = append(snapshot, next)
	}
	return snapshot
}

// regressed reports whether moving from prev to next would walk backward
// along the forward chain. Cancelled is accepted from any non-terminal
// status.
func regressed(prev, next models.OrderStatus) bool {
	if prev == next {
		return false
	}
	if next == models.StatusCancelled {
		return prev.Terminal()
	}
	prevRank, nextRank := models.StatusRank(prev), models.StatusRank(next)
	if prevRank < 0 || nextRank < 0 {
		return false
	}
	return nextRank < prevRank
}
