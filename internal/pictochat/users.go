package pictochat

import (
	"bytes"
	"net"
	"sync"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
)

// User is one chatroom participant.
type User struct {
	MAC  net.HardwareAddr
	AID  domain.AID
	Name string
}

// UserManager mirrors the link roster at the application layer, adding
// the names learned from ident frames. Same 15-slot shape as the roster.
type UserManager struct {
	mu    sync.Mutex
	users [domain.MaxClients]*User
}

func NewUserManager() *UserManager {
	return &UserManager{}
}

// Join records a participant. Slot position follows the AID when known;
// a zero AID parks the user in the first free slot until the roster
// catches up.
func (m *UserManager) Join(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.AID.Valid() {
		m.users[u.AID-1] = &u
		return
	}
	for i := range m.users {
		if m.users[i] == nil {
			m.users[i] = &u
			return
		}
	}
}

// SetName attaches an ident name to the user with this MAC.
func (m *UserManager) SetName(mac net.HardwareAddr, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u != nil && bytes.Equal(u.MAC, mac) {
			u.Name = name
			return true
		}
	}
	return false
}

// Leave drops the user with this MAC.
func (m *UserManager) Leave(mac net.HardwareAddr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u != nil && bytes.Equal(u.MAC, mac) {
			m.users[i] = nil
			return
		}
	}
}

// Count returns the number of participants.
func (m *UserManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u != nil {
			n++
		}
	}
	return n
}

// Snapshot copies the participant list.
func (m *UserManager) Snapshot() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u != nil {
			out = append(out, *u)
		}
	}
	return out
}
