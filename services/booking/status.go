package booking

import "medbook/models"

// transitions is the lifecycle graph. Cancellation is handled separately: it is allowed from
// every state that is not terminal.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusRequested:             {models.StatusUnderReview},
	models.StatusUnderReview:           {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted:              {models.StatusQuotationSent},
	models.StatusQuotationSent:         {models.StatusPaymentDetails},
	models.StatusPaymentDetails:        {models.StatusConfirmationSent},
	models.StatusConfirmationSent:      {models.StatusPaymentReceived},
	models.StatusPaymentReceived:       {models.StatusConfirmationCompleted},
	models.StatusConfirmationCompleted: {models.StatusInvoiceSent},
	models.StatusInvoiceSent:           {models.StatusTravelArrangements},
	models.StatusTravelArrangements:    {models.StatusConsultationScheduled},
	models.StatusConsultationScheduled: {models.StatusInProgress},
	models.StatusInProgress:            {models.StatusCompleted},
}

var terminal = map[models.BookingStatus]bool{
	models.StatusRejected:         true,
	models.StatusCancelled:        true,
	models.StatusCompleted:        true,
	models.StatusFeedbackReceived: true,
}

// stage orders the happy path so payload gates can ask "at or after".
var stage = map[models.BookingStatus]int{
	models.StatusRequested:             0,
	models.StatusUnderReview:           1,
	models.StatusAccepted:              2,
	models.StatusQuotationSent:         3,
	models.StatusPaymentDetails:        4,
	models.StatusConfirmationSent:      5,
	models.StatusPaymentReceived:       6,
	models.StatusConfirmationCompleted: 7,
	models.StatusInvoiceSent:           8,
	models.StatusTravelArrangements:    9,
	models.StatusConsultationScheduled: 10,
	models.StatusInProgress:            11,
	models.StatusCompleted:             12,
	models.StatusFeedbackReceived:      13,
}

// IsKnownStatus reports whether s belongs to the booking status vocabulary.
func IsKnownStatus(s models.BookingStatus) bool {
	_, ok := stage[s]
	return ok || s == models.StatusRejected || s == models.StatusCancelled
}

// IsTerminal reports whether no transition may leave s.
func IsTerminal(s models.BookingStatus) bool {
	return terminal[s]
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to models.BookingStatus) bool {
	if IsTerminal(from) {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step, cancellation included.
func NextStatuses(s models.BookingStatus) []models.BookingStatus {
	if IsTerminal(s) {
		return nil
	}
	next := append([]models.BookingStatus{}, transitions[s]...)
	return append(next, models.StatusCancelled)
}

func reachedStage(current, gate models.BookingStatus) bool {
	cur, ok := stage[current]
	if !ok {
		return false
	}
	return cur >= stage[gate]
}
