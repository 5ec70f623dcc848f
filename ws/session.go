package ws

import "github.com/judgegodwins/sketch-server/game"

// Session is the game state a connection carries. Room is borrowed from the
// registry; a Room with no Nick means the client picked a room but has not
// registered in it yet. Only the event handlers touch it, under the
// manager's dispatch lock.
type Session struct {
	Nick string
	Room *game.Room
}

func (s *Session) Registered() bool {
	return s.Nick != "" && s.Room != nil
}

func (s *Session) Pending() bool {
	return s.Nick == "" && s.Room != nil
}

func (s *Session) reset() {
	s.Nick = ""
	s.Room = nil
}
