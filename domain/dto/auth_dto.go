package dto

// GoogleLoginRequest carries the client-obtained authorization code or ID token.
type GoogleLoginRequest struct {
	Code    string `json:"code"`
	IDToken string `json:"id_token"`
}

type OTPSendRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type OTPVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}
