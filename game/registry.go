package game

import (
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Summary is what the room browser is allowed to know about a room.
type Summary struct {
	Name     string `json:"name"`
	Password bool   `json:"password"`
	Users    int    `json:"users"`
}

// Registry is the directory of live rooms by name. It is owned by whoever
// serializes game access and is not safe for concurrent use on its own.
//
// Besides members, a room can be held by clients that picked it but have not
// registered a nick yet. A held room is never destroyed.
type Registry struct {
	rooms map[string]*Room
	order []string
	holds map[*Room]int
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		order: []string{},
		holds: make(map[*Room]int),
	}
}

// Create adds an empty room. The caller is not made a member.
func (reg *Registry) Create(name, password string, visible bool) (*Room, error) {
	if name == "" {
		return nil, ErrInvalidRoomName
	}

	if _, ok := reg.rooms[name]; ok {
		return nil, ErrRoomExists
	}

	room := NewRoom(name, password, visible)

	reg.rooms[name] = room
	reg.order = append(reg.order, name)

	return room, nil
}

func (reg *Registry) Find(name string) (*Room, bool) {
	if name == "" {
		return nil, false
	}

	room, ok := reg.rooms[name]
	return room, ok
}

// ListVisible lists public rooms in creation order.
func (reg *Registry) ListVisible() []Summary {
	return lo.FilterMap(reg.order, func(name string, _ int) (Summary, bool) {
		room := reg.rooms[name]

		if !room.Visible() {
			return Summary{}, false
		}

		return Summary{
			Name:     room.Name(),
			Password: room.HasPassword(),
			Users:    room.MemberCount(),
		}, true
	})
}

// Hold records one more pending client for room.
func (reg *Registry) Hold(room *Room) {
	reg.holds[room]++
}

// Release drops one pending hold on room.
func (reg *Registry) Release(room *Room) {
	if reg.holds[room] <= 1 {
		delete(reg.holds, room)
		return
	}

	reg.holds[room]--
}

// Holds returns how many pending clients hold room.
func (reg *Registry) Holds(room *Room) int {
	return reg.holds[room]
}

// DestroyIfEmpty drops room from the directory when it has no members and no
// pending holders.
func (reg *Registry) DestroyIfEmpty(room *Room) bool {
	if room == nil || room.MemberCount() > 0 || reg.holds[room] > 0 {
		return false
	}

	if reg.rooms[room.Name()] != room {
		return false
	}

	delete(reg.rooms, room.Name())

	if index := slices.Index(reg.order, room.Name()); index >= 0 {
		reg.order = slices.Delete(reg.order, index, index+1)
	}

	return true
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}
