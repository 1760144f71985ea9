package model

// User is the account a session is logged in as.
type User struct {
	ID         int64  `json:"id"`
	AccessHash int64  `json:"access_hash"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Phone      string `json:"phone"`
}

// DisplayName returns the first name, falling back to the username and the
// phone number for accounts without one.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return u.Phone
	}
}
