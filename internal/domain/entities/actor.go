package entities

// Role is the authorization level carried in an access token
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// Actor is the authenticated principal performing an operation
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

// IsModerator reports whether the actor holds the moderator role
func (a Actor) IsModerator() bool {
	return a.Role == RoleModerator
}
