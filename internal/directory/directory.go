// Package directory is the boundary to the external user system. The
// workflow only needs existence checks and display names; authentication and
// authorization live entirely on the other side of this interface.
package directory

import (
	"context"
	"sync"

	id "veriflow/pkg/domain"
	dErrors "veriflow/pkg/errors"
)

// Role classifies a workflow participant.
type Role string

const (
	RoleRequestor Role = "REQUESTOR"
	RoleOfficer   Role = "OFFICER"
)

// User is the slim projection of an external user record.
type User struct {
	ID   id.UserID
	Name string
	Role Role
}

// ErrNotFound is returned for unknown users.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")

// Directory looks up workflow participants.
type Directory interface {
	FindByID(ctx context.Context, userID id.UserID) (User, error)
}

// InMemoryDirectory is a map-backed directory for tests and local runs.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryDirectory(users ...User) *InMemoryDirectory {
	d := &InMemoryDirectory{users: make(map[id.UserID]User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Add registers a user.
func (d *InMemoryDirectory) Add(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *InMemoryDirectory) FindByID(_ context.Context, userID id.UserID) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.users[userID]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}
