package ledger

import (
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// Event names a state-changing operation.
type Event string

const (
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
	EventApprove  Event = "approve"
)

var investmentTransitions = map[models.InvestmentStatus]map[Event]models.InvestmentStatus{
	models.InvestmentActive: {
		EventComplete: models.InvestmentCompleted,
		EventCancel:   models.InvestmentCancelled,
	},
}

var requestTransitions = map[models.RequestStatus]map[Event]models.RequestStatus{
	models.RequestPending: {
		EventApprove: models.RequestApproved,
		EventCancel:  models.RequestCancelled,
	},
}

// InvestmentTransition returns the status an investment moves to on ev.
// COMPLETED and CANCELLED are terminal.
func InvestmentTransition(from models.InvestmentStatus, ev Event) (models.InvestmentStatus, bool) {
	to, ok := investmentTransitions[from][ev]
	return to, ok
}

// RequestTransition returns the status a deposit or withdrawal moves to on ev.
// APPROVED and CANCELLED are terminal.
func RequestTransition(from models.RequestStatus, ev Event) (models.RequestStatus, bool) {
	to, ok := requestTransitions[from][ev]
	return to, ok
}
