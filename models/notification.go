package models

type (
	// Notification represents the request to the notification service's
	// POST /notifications, raised when a respondent submission has been scored.
	// It does not carry the score itself, just enough to fetch it.
	Notification struct {
		Event                string `json:"event"`
		TenantID             string `json:"tenantId"`
		LinkID               string `json:"linkId"`
		AssessmentInstanceID string `json:"assessmentInstanceId"`
	}
)
