package game

import (
	"encoding/json"

	"github.com/judgegodwins/sketch-server/util"
)

type StrokeKind string

const (
	StrokeDown StrokeKind = "mousedown"
	StrokeMove StrokeKind = "mousemove"
	StrokeUp   StrokeKind = "mouseup"
)

// Stroke is one pointer sample. The client sends it as a JSON string nested
// inside the draw payload; raw keeps that string so replays are byte-for-byte
// what the artist sent.
type Stroke struct {
	Kind    StrokeKind
	ClientX float64
	ClientY float64
	raw     string
}

type strokeWire struct {
	Type    StrokeKind `json:"type" validate:"required,oneof=mousedown mousemove mouseup"`
	ClientX *float64   `json:"clientX,omitempty"`
	ClientY *float64   `json:"clientY,omitempty"`
}

// ParseStroke decodes the double-encoded stroke string sent by the artist.
func ParseStroke(raw string) (Stroke, error) {
	var w strokeWire

	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Stroke{}, ErrInvalidStroke
	}

	if err := util.Validate.Struct(w); err != nil {
		return Stroke{}, ErrInvalidStroke
	}

	s := Stroke{Kind: w.Type, raw: raw}

	if w.ClientX != nil {
		s.ClientX = *w.ClientX
	}

	if w.ClientY != nil {
		s.ClientY = *w.ClientY
	}

	return s, nil
}

// NewStroke builds a stroke from its parts. Coordinates are dropped for
// mouseup.
func NewStroke(kind StrokeKind, x, y float64) Stroke {
	w := strokeWire{Type: kind}

	if kind != StrokeUp {
		w.ClientX = &x
		w.ClientY = &y
	}

	b, _ := json.Marshal(w)

	s := Stroke{Kind: kind, raw: string(b)}

	if kind != StrokeUp {
		s.ClientX = x
		s.ClientY = y
	}

	return s
}

// Raw returns the wire encoding of the stroke.
func (s Stroke) Raw() string {
	return s.raw
}
