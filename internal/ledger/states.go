package ledger

import "loyalty-service/internal/models"

// preorderNext maps each preorder status to the forward transition it
// permits. Cancellation is allowed from any non-terminal state and is
// handled separately.
var preorderNext = map[string]string{
	models.PreorderStatusRequested: models.PreorderStatusConfirmed,
	models.PreorderStatusConfirmed: models.PreorderStatusReady,
	models.PreorderStatusReady:     models.PreorderStatusPickedUp,
}

// CanAdvancePreorder reports whether a preorder may move from one status
// directly to another. Skipping a step (e.g. REQUESTED straight to READY)
// is rejected.
func CanAdvancePreorder(from, to string) bool {
	return preorderNext[from] == to
}

// CanCancelPreorder reports whether a preorder in the given status may be
// cancelled. Terminal states stay terminal.
func CanCancelPreorder(status string) bool {
	return status == models.PreorderStatusRequested ||
		status == models.PreorderStatusConfirmed ||
		status == models.PreorderStatusReady
}

// PreorderTerminal reports whether a preorder status is terminal.
func PreorderTerminal(status string) bool {
	return status == models.PreorderStatusPickedUp ||
		status == models.PreorderStatusCancelled
}

// OrderTerminal reports whether an order status is terminal.
func OrderTerminal(status string) bool {
	return status == models.OrderStatusPickedUp ||
		status == models.OrderStatusCancelled
}
