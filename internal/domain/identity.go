package domain

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Identity is the verified caller handed to the core by authentication.
type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
