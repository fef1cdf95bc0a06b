package types

// User is an operator account. The password hash never leaves the server.
type User struct {
	UserID       string `json:"user_ID"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	EmailID      string `json:"emailId"`
	PhoneNo      string `json:"phoneNo"`
	PasswordHash string `json:"-"`
}

// UserInput carries a partial user update; nil fields are left unchanged.
type UserInput struct {
	Username *string
	Role     *string
	EmailID  *string
	PhoneNo  *string
}
