package notification

type NotificationResponse struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	ReadBy         []string `json:"read_by"`
	Read           bool     `json:"read"`
	RelatedLeaveID *string  `json:"related_leave_id,omitempty"`
	CreatedAt      string   `json:"created_at"`
}
