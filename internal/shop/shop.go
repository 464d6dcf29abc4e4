package shop

type Shop struct {
	Name         string `json:"shopname"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt"`
}

// AuthResult is the outcome of a credential check.
type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthNotFound
	AuthWrongPassword
)

func (r AuthResult) String() string {
	switch r {
	case AuthOK:
		return "ok"
	case AuthNotFound:
		return "not_found"
	default:
		return "wrong_password"
	}
}
