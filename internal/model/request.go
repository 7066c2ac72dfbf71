package model

type RegisterEmailRequest struct {
	Nickname string `json:"nickname" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=3,max=8"`
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Image   string `json:"image,omitempty"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
}
