package domain

// TickSummary is the only externally visible output of a scheduler tick
// besides its side effects. Expected failure modes are aggregated here, never
// raised out of the tick.
type TickSummary struct {
	JobsOverdue           int `json:"jobs_overdue"`
	JobsReopened          int `json:"jobs_reopened"`
	JobsCreated           int `json:"jobs_created"`
	NotificationsEnqueued int `json:"notifications_enqueued"`
	NotificationsSent     int `json:"notifications_sent"`
	NotificationsFailed   int `json:"notifications_failed"`
	Anomalies             int `json:"anomalies"`
}
