package services

import "lawjournal/internal/models"

// Actor is the identity a privileged call is made on behalf of. It is passed
// explicitly so the core never reads session state.
type Actor struct {
	UserID   uint
	Username string
	Admin    bool
}

// Anonymous is the actor for visitors without a session.
var Anonymous = Actor{}

// ActorFor builds the actor for a loaded user; nil means anonymous.
func ActorFor(u *models.User) Actor {
	if u == nil {
		return Anonymous
	}
	return Actor{UserID: u.ID, Username: u.Username, Admin: u.IsAdmin}
}

func (a Actor) IsAdmin() bool {
	return a.Admin && a.UserID != 0
}
