package dto

type SendVerificationInput struct {
	Email string `json:"email" form:"email"`
}

type VerifyEmailInput struct {
	ID   string `json:"id" form:"id"`
	Code string `json:"code" form:"code"`
}

type UpdateProfileInput struct {
	Name string `json:"name" form:"name"`
}
