// Package types 定义 HTTP 层的请求与响应结构.
package types

// TelegramAuthRequest Telegram Login Widget 回传的认证载荷.
type TelegramAuthRequest struct {
	ID        int64  `binding:"required" json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `binding:"required" json:"auth_date"`
	Hash      string `binding:"required" json:"hash"`
}

// TelegramAuthResponse 认证成功响应.
type TelegramAuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// UserResponse 用户信息.
type UserResponse struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
	UsedSpace  int64  `json:"used_space"`
	Quota      int64  `json:"quota"`
}
