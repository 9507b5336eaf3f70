package model

type ModerationAction string

const (
	ModerationApprove ModerationAction = "approve"
	ModerationReject  ModerationAction = "reject"
)

type ModerationRequest struct {
	TourID int              `json:"tour_id"`
	Action ModerationAction `json:"action"`
	Reason string           `json:"reason,omitempty"`
}

type ModerationResponse struct {
	Success   bool   `json:"success"`
	TourID    int    `json:"tour_id"`
	Action    string `json:"action"`
	NewStatus string `json:"new_status"`
}
