package queue

import "visitq/queue-service/internal/models"

var transitionMap = map[string][]string{
	models.StatusInProgress: {models.StatusWaiting},
	models.StatusDone:       {models.StatusInProgress},
}

// ValidTransition reports whether a visitor may move from fromStatus to
// toStatus. The lifecycle only moves forward: waiting -> in_progress -> done.
func ValidTransition(fromStatus, toStatus string) bool {
	allowed, ok := transitionMap[toStatus]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

func ValidateTransition(fromStatus, toStatus string) error {
	if !ValidTransition(fromStatus, toStatus) {
		return ErrInvalidTransition
	}
	return nil
}
