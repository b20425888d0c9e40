package entity

// User is a row of the users table.
// Role is stored but no route makes authorization decisions on it.
type User struct {
	ID           int    `json:"user_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

// DisplayName is what pages greet the user with.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
