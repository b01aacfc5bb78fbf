package services

import (
	"driverless-backend/internal/models"
	"fmt"
	"time"
)

// UserDirectory keeps the authorized usernames and the user records they
// belong to. The set and the records always describe the same users.
type UserDirectory struct {
	admin      models.User
	users      []models.User
	authorized map[string]struct{}
	active     string
	log        *IncidentLog
}

// NewUserDirectory seeds the directory with the admin user, who can never
// be deleted.
func NewUserDirectory(admin models.User, log *IncidentLog) *UserDirectory {
	admin.Admin = true
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}

	return &UserDirectory{
		admin:      admin,
		users:      []models.User{admin},
		authorized: map[string]struct{}{admin.Username: {}},
		log:        log,
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" yaml:"name" validate:"required,min=1,max=50"`
	Surname  string `json:"surname" yaml:"surname" validate:"required,min=1,max=50"`
	Username string `json:"username" yaml:"username" validate:"required,min=1,max=50"`
}

func (d *UserDirectory) AddUser(req CreateUserRequest) (models.User, error) {
	if _, exists := d.authorized[req.Username]; exists {
		d.log.Appendf("Attempted to add the user '%s'. The user already exists.", req.Username)
		return models.User{}, fmt.Errorf("add user %q: %w", req.Username, ErrDuplicate)
	}

	user := models.User{
		Name:      req.Name,
		Surname:   req.Surname,
		Username:  req.Username,
		CreatedAt: time.Now(),
	}
	d.users = append(d.users, user)
	d.authorized[user.Username] = struct{}{}

	d.log.Appendf("The user '%s' has been added.", user.Username)
	return user, nil
}

func (d *UserDirectory) DeleteUser(username string) error {
	switch {
	case d.active != "" && username == d.active:
		d.log.Appendf("Attempted to delete the active user '%s'. Request rejected.", username)
		return fmt.Errorf("delete active user %q: %w", username, ErrProtected)
	case username == d.admin.Username:
		d.log.Append("Attempted to delete the admin user. Request rejected.")
		return fmt.Errorf("delete admin user %q: %w", username, ErrProtected)
	}

	if _, exists := d.authorized[username]; !exists {
		d.log.Appendf("Attempted to delete the user '%s'. The user doesn't exist.", username)
		return fmt.Errorf("delete user %q: %w", username, ErrNotFound)
	}

	delete(d.authorized, username)
	for i, user := range d.users {
		if user.Username == username {
			d.users = append(d.users[:i], d.users[i+1:]...)
			break
		}
	}

	d.log.Appendf("The user '%s' has been deleted.", username)
	return nil
}

// Authenticate makes username the active user. Authenticating as someone
// else while a session is open replaces that session.
func (d *UserDirectory) Authenticate(username string) (models.User, error) {
	user, ok := d.find(username)
	if !ok {
		d.log.Append("Unauthorized attempt to access the system.")
		return models.User{}, ErrUnauthorized
	}

	d.active = username
	d.log.Appendf("The user '%s' has been authorized to use the system.", username)
	return user, nil
}

// Logout ends the session of username if it is the active one.
func (d *UserDirectory) Logout(username string) error {
	if d.active == "" || d.active != username {
		d.log.Appendf("Attempted to log out the user '%s' without an active session.", username)
		return fmt.Errorf("logout %q: %w", username, ErrUnauthorized)
	}

	d.active = ""
	d.log.Appendf("The user '%s' has logged out.", username)
	return nil
}

// ListUsers returns the users in the order they were added.
func (d *UserDirectory) ListUsers() []models.User {
	users := make([]models.User, len(d.users))
	copy(users, d.users)
	return users
}

// ActiveUser returns the username of the current session.
func (d *UserDirectory) ActiveUser() (string, bool) {
	return d.active, d.active != ""
}

func (d *UserDirectory) find(username string) (models.User, bool) {
	if _, exists := d.authorized[username]; !exists {
		return models.User{}, false
	}
	for _, user := range d.users {
		if user.Username == username {
			return user, true
		}
	}
	return models.User{}, false
}
