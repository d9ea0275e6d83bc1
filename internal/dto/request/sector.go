package request

type CreateSectorRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}
