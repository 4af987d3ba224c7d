package leads

type CreateLeadRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Company    string  `json:"company" validate:"omitempty,max=200"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Phone      string  `json:"phone" validate:"omitempty,max=50"`
	Value      float64 `json:"value" validate:"gte=0"`
	Status     string  `json:"status" validate:"omitempty,oneof=new contacted qualified won lost"`
	Source     string  `json:"source" validate:"omitempty,max=100"`
	AssignedTo string  `json:"assignedTo" validate:"omitempty,uuid4"`
}

type UpdateLeadRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Company    *string  `json:"company,omitempty" validate:"omitempty,max=200"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Value      *float64 `json:"value,omitempty" validate:"omitempty,gte=0"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified won lost"`
	Source     *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	AssignedTo *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid4"`
}

type ListLeadsRequest struct {
	Status     string `json:"status" validate:"omitempty,oneof=new contacted qualified won lost"`
	AssignedTo string `json:"assignedTo" validate:"omitempty,uuid4"`
	Limit      int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int    `json:"offset" validate:"gte=0"`
}
