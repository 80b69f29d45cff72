package linkograph

import (
	"fmt"
)

// Move is one atomic design act in a parsed protocol. Indices are 1-based,
// sequential, and never change once assigned.
type Move struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
	Unit    string `json:"unit,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// MoveStore holds the ordered move sequence for one protocol. It is
// append-only while open and read-only once sealed; a transcript never
// gets reordered or back-filled.
type MoveStore struct {
	moves  []Move
	sealed bool
}

func NewMoveStore() *MoveStore {
	return &MoveStore{}
}

// Append assigns the next sequential index and records the move.
// Fails once the store has been sealed.
func (s *MoveStore) Append(speaker, text string) (Move, error) {
	if s.sealed {
		return Move{}, ErrSealed
	}
	m := Move{
		Index:   len(s.moves) + 1,
		Speaker: speaker,
		Text:    text,
	}
	s.moves = append(s.moves, m)
	return m, nil
}

// AppendMove records a fully populated move, keeping unit and line
// annotations from the parser. The caller-supplied index is ignored.
func (s *MoveStore) AppendMove(m Move) (Move, error) {
	if s.sealed {
		return Move{}, ErrSealed
	}
	m.Index = len(s.moves) + 1
	s.moves = append(s.moves, m)
	return m, nil
}

// Seal freezes the store. Further appends fail.
func (s *MoveStore) Seal() {
	s.sealed = true
}

func (s *MoveStore) Sealed() bool {
	return s.sealed
}

// Move returns the move at a 1-based index.
func (s *MoveStore) Move(index int) (Move, error) {
	if index < 1 || index > len(s.moves) {
		return Move{}, fmt.Errorf("move %d: %w (store has %d moves)", index, ErrNotFound, len(s.moves))
	}
	return s.moves[index-1], nil
}

func (s *MoveStore) Len() int {
	return len(s.moves)
}

// Moves returns a copy of the full sequence.
func (s *MoveStore) Moves() []Move {
	out := make([]Move, len(s.moves))
	copy(out, s.moves)
	return out
}

// BySpeaker returns all moves attributed to one speaker, in order.
func (s *MoveStore) BySpeaker(speaker string) []Move {
	var out []Move
	for _, m := range s.moves {
		if m.Speaker == speaker {
			out = append(out, m)
		}
	}
	return out
}

// Speakers returns the distinct speaker tags in first-appearance order.
func (s *MoveStore) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.moves {
		if m.Speaker == "" || seen[m.Speaker] {
			continue
		}
		seen[m.Speaker] = true
		out = append(out, m.Speaker)
	}
	return out
}
