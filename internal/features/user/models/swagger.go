package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Error message"`
}

// UserUpdate is the dashboard's partial edit of a user. Nil fields are left unchanged.
type UserUpdate struct {
	DisplayName  *string `json:"display_name,omitempty" example:"Budi"`
	Tier         *Tier   `json:"tier,omitempty" example:"premium" enums:"owner,premium,standard"`
	Balance      *int64  `json:"balance,omitempty" example:"500"`
	BonusCredits *int64  `json:"bonus_credits,omitempty" example:"100"`
	DailyLimit   *int    `json:"daily_limit,omitempty" example:"50"`
	LimitUsed    *int    `json:"limit_used,omitempty" example:"0"`
}

// LinkRequest attaches a secondary identifier (and its account, if any) to a user.
type LinkRequest struct {
	Identifier string `json:"identifier" binding:"required" example:"123456789012345@lid"`
}

// UsersResponse represents a paginated list of users
type UsersResponse struct {
	Items []*User `json:"items"`
	Total int     `json:"total" example:"42"`
	Page  int     `json:"page" example:"1"`
	Limit int     `json:"limit" example:"20"`
}

// ResetResponse reports a manual daily limit reset.
type ResetResponse struct {
	Reset int64 `json:"reset" example:"12"`
}
