package customer

import "regexp"

type Customer struct {
	Name         string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
	Shopname     string `json:"shopname"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt"`
}

type AuthResult int

const (
	AuthOK AuthResult = iota
	AuthNotFound
	AuthWrongPassword
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether phone is exactly ten digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
