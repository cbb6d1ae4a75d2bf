package directory

import (
	"encoding/json"
	"fmt"
	"os"

	id "veriflow/pkg/domain"
)

type fileUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// LoadFromFile reads a JSON array of users into an in-memory directory.
// Deployments without a real directory service point this at a provisioning
// file.
func LoadFromFile(path string) (*InMemoryDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	var raw []fileUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse directory file: %w", err)
	}

	d := NewInMemoryDirectory()
	for _, u := range raw {
		userID, err := id.ParseUserID(u.ID)
		if err != nil {
			return nil, fmt.Errorf("directory entry %q: %w", u.ID, err)
		}
		if u.Role != RoleRequestor && u.Role != RoleOfficer {
			return nil, fmt.Errorf("directory entry %q: unknown role %q", u.ID, u.Role)
		}
		d.Add(User{ID: userID, Name: u.Name, Role: u.Role})
	}
	return d, nil
}
