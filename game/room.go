package game

import (
	"github.com/judgegodwins/sketch-server/util"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

const noArtist = -1

// Room is one independent game: its members in turn order, whose turn it is,
// the skip votes of the current round and what has been drawn so far.
//
// A Room does no locking of its own; callers serialize access.
type Room struct {
	name      string
	password  string
	visible   bool
	members   []string
	skipVotes []bool
	artist    int
	history   History
}

// SkipOutcome reports the state of the skip vote after a call to VoteSkip.
type SkipOutcome struct {
	Passed  bool
	Voter   string
	Skipped string
	Count   int
	Total   int
}

// NewRoom creates an idle, empty room. An empty password means none.
func NewRoom(name, password string, visible bool) *Room {
	return &Room{
		name:      name,
		password:  password,
		visible:   visible,
		members:   []string{},
		skipVotes: []bool{},
		artist:    noArtist,
	}
}

func (r *Room) Name() string {
	return r.name
}

func (r *Room) Visible() bool {
	return r.visible
}

func (r *Room) HasPassword() bool {
	return r.password != ""
}

// CheckPassword lets anyone into an unprotected room, whatever they send.
func (r *Room) CheckPassword(password string) error {
	if !r.HasPassword() || password == r.password {
		return nil
	}

	if password == "" {
		return ErrPasswordRequired
	}

	return ErrPasswordMismatch
}

// Members returns the nicknames in turn order.
func (r *Room) Members() []string {
	return append([]string{}, r.members...)
}

func (r *Room) MemberCount() int {
	return len(r.members)
}

func (r *Room) HasMember(nick string) bool {
	return slices.Contains(r.members, nick)
}

func (r *Room) SkipVotes() []bool {
	return append([]bool{}, r.skipVotes...)
}

func (r *Room) History() []Stroke {
	return r.history.Strokes()
}

// ValidateNick reports whether nick is usable as a display name.
func ValidateNick(nick string) error {
	if err := util.Validate.Var(nick, "required,min=3"); err != nil {
		return ErrInvalidNick
	}

	return nil
}

// RegisterNickname appends a new member at the end of the turn order.
// It does not start the game.
func (r *Room) RegisterNickname(nick string) error {
	if err := ValidateNick(nick); err != nil {
		return err
	}

	if r.HasMember(nick) {
		return ErrNickTaken
	}

	r.members = append(r.members, nick)
	r.skipVotes = append(r.skipVotes, false)

	return nil
}

// RenameMember swaps a nickname in place, keeping turn position and votes.
func (r *Room) RenameMember(oldNick, newNick string) error {
	if err := ValidateNick(newNick); err != nil {
		return err
	}

	index := slices.Index(r.members, oldNick)

	if index < 0 {
		return ErrMemberNotFound
	}

	if oldNick != newNick && r.HasMember(newNick) {
		return ErrNickTaken
	}

	r.members[index] = newNick
	return nil
}

// RemoveMember drops nick and its vote, keeping the artist index on the same
// person. When the artist itself leaves the index is parked on the previous
// member so that the next AdvanceArtist lands on whoever came after them;
// restarting the round is left to the caller.
func (r *Room) RemoveMember(nick string) (wasArtist bool, err error) {
	index := slices.Index(r.members, nick)

	if index < 0 {
		return false, ErrMemberNotFound
	}

	wasArtist = index == r.artist

	r.members = slices.Delete(r.members, index, index+1)
	r.skipVotes = slices.Delete(r.skipVotes, index, index+1)

	switch {
	case len(r.members) == 0:
		r.artist = noArtist
	case r.artist == noArtist:
	case index < r.artist:
		r.artist--
	case wasArtist:
		r.artist = (index - 1 + len(r.members)) % len(r.members)
	}

	return wasArtist, nil
}

// StartIfIdle hands the first turn to the first member. It returns false when
// the game was already running or there is nobody to draw.
func (r *Room) StartIfIdle() bool {
	if r.artist != noArtist || len(r.members) == 0 {
		return false
	}

	r.artist = 0
	return true
}

// AdvanceArtist passes the turn to the next member, wrapping around.
func (r *Room) AdvanceArtist() {
	if len(r.members) == 0 {
		r.artist = noArtist
		return
	}

	if r.artist == noArtist {
		r.artist = 0
		return
	}

	r.artist = (r.artist + 1) % len(r.members)
}

// ArtistIndex returns the position of the current artist, if any.
func (r *Room) ArtistIndex() (int, bool) {
	if r.artist == noArtist {
		return 0, false
	}

	return r.artist, true
}

// Artist returns the nickname of the current artist, if any.
func (r *Room) Artist() (string, bool) {
	if r.artist == noArtist {
		return "", false
	}

	return r.members[r.artist], true
}

func (r *Room) IsArtist(nick string) bool {
	artist, ok := r.Artist()
	return ok && nick != "" && artist == nick
}

// Restart begins a new round: votes are reset, the canvas is wiped and the
// turn moves on.
func (r *Room) Restart() {
	for i := range r.skipVotes {
		r.skipVotes[i] = false
	}

	r.history.Reset()
	r.AdvanceArtist()
}

// VoteSkip records a vote to end the current turn. The artist forfeits
// immediately; everyone else needs a strict majority of the room. A passing
// vote restarts the round before returning.
func (r *Room) VoteSkip(nick string) (SkipOutcome, error) {
	artist, started := r.Artist()

	if !started {
		return SkipOutcome{}, ErrGameNotStarted
	}

	index := slices.Index(r.members, nick)

	if index < 0 {
		return SkipOutcome{}, ErrMemberNotFound
	}

	outcome := SkipOutcome{Voter: nick, Total: len(r.members)}

	if nick == artist {
		outcome.Passed = true
		outcome.Skipped = artist
		r.Restart()
		return outcome, nil
	}

	if r.skipVotes[index] {
		return SkipOutcome{}, ErrAlreadyVoted
	}

	r.skipVotes[index] = true
	outcome.Count = lo.Count(r.skipVotes, true)

	if outcome.Count*2 > outcome.Total {
		outcome.Passed = true
		outcome.Skipped = artist
		r.Restart()
	}

	return outcome, nil
}

// RecordStroke appends a stroke drawn by the artist.
func (r *Room) RecordStroke(nick string, s Stroke) error {
	if !r.IsArtist(nick) {
		return ErrNotArtist
	}

	r.history.Append(s)
	return nil
}

// Clear wipes the canvas.
func (r *Room) Clear(nick string) error {
	if !r.IsArtist(nick) {
		return ErrNotArtist
	}

	r.history.Reset()
	return nil
}

// Undo removes the last stroke. Undoing an empty canvas is not an error.
func (r *Room) Undo(nick string) error {
	if !r.IsArtist(nick) {
		return ErrNotArtist
	}

	r.history.UndoLastStroke()
	return nil
}
