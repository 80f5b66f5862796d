package request

type CreateBrand struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Slug        string `json:"slug" validate:"required,slug"`
	AccentColor string `json:"accent_color" validate:"omitempty,hexcolor"`
}

type UpdateBrand struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	AccentColor *string `json:"accent_color" validate:"omitempty,hexcolor"`
}
