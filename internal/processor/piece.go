package processor

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Sequence names one of the two inputs of a template.
type Sequence uint8

const (
	SequenceA Sequence = iota
	SequenceB
)

func (s Sequence) String() string {
	if s == SequenceB {
		return "B"
	}
	return "A"
}

// Index is the position of the sequence among the inputs.
func (s Sequence) Index() int { return int(s) }

func (s Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Sequence) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v {
	case "A":
		*s = SequenceA
	case "B":
		*s = SequenceB
	default:
		return newTemplateError("unknown sequence %q", v)
	}
	return nil
}

// PieceKind distinguishes sequence references from special tokens.
type PieceKind uint8

const (
	SequencePiece PieceKind = iota
	SpecialTokenPiece
)

// Piece is one element of a template: either an input sequence or a
// reference to a declared special token, each tagged with a type id.
type Piece struct {
	Kind     PieceKind
	Sequence Sequence
	// ID is the special token key; empty for sequence pieces.
	ID     string
	TypeID uint32
}

// Seq returns a piece referencing an input sequence.
func Seq(s Sequence, typeID uint32) Piece {
	return Piece{Kind: SequencePiece, Sequence: s, TypeID: typeID}
}

// Special returns a piece referencing a special token by its key.
func Special(id string, typeID uint32) Piece {
	return Piece{Kind: SpecialTokenPiece, ID: id, TypeID: typeID}
}

// ParsePiece reads "<id>" or "<id>:<type_id>". Ids starting with "$" name a
// sequence: "$", "$A" and "$a" are sequence A, "$B" and "$b" sequence B, and
// "$<n>" is sequence A with type id n. Any other id is a special token.
func ParsePiece(s string) (Piece, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return extractID(s, parts[0])
	case 2:
		p, err := extractID(s, parts[0])
		if err != nil {
			return Piece{}, err
		}
		typeID, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return Piece{}, newTemplateError("cannot build piece from string %q", s)
		}
		p.TypeID = uint32(typeID)
		return p, nil
	default:
		return Piece{}, newTemplateError("cannot build piece from string %q", s)
	}
}

func extractID(orig, id string) (Piece, error) {
	if id == "" {
		return Piece{}, newTemplateError("cannot build piece from string %q", orig)
	}
	rest, isSeq := strings.CutPrefix(id, "$")
	if !isSeq {
		return Special(id, 0), nil
	}
	switch rest {
	case "", "A", "a":
		return Seq(SequenceA, 0), nil
	case "B", "b":
		return Seq(SequenceB, 0), nil
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return Piece{}, newTemplateError("cannot build piece from string %q", orig)
	}
	return Seq(SequenceA, uint32(n)), nil
}

// String returns the canonical form accepted by ParsePiece.
func (p Piece) String() string {
	if p.Kind == SequencePiece {
		return fmt.Sprintf("$%s:%d", p.Sequence, p.TypeID)
	}
	return fmt.Sprintf("%s:%d", p.ID, p.TypeID)
}

type sequencePieceJSON struct {
	ID     Sequence `json:"id"`
	TypeID uint32   `json:"type_id"`
}

type specialPieceJSON struct {
	ID     string `json:"id"`
	TypeID uint32 `json:"type_id"`
}

type pieceJSON struct {
	Sequence     *sequencePieceJSON `json:"Sequence,omitempty"`
	SpecialToken *specialPieceJSON  `json:"SpecialToken,omitempty"`
}

// MarshalJSON encodes {"Sequence":{...}} or {"SpecialToken":{...}}.
func (p Piece) MarshalJSON() ([]byte, error) {
	if p.Kind == SequencePiece {
		return json.Marshal(pieceJSON{Sequence: &sequencePieceJSON{ID: p.Sequence, TypeID: p.TypeID}})
	}
	return json.Marshal(pieceJSON{SpecialToken: &specialPieceJSON{ID: p.ID, TypeID: p.TypeID}})
}

// UnmarshalJSON accepts the tagged object form and, for hand-written
// templates, the string form read by ParsePiece.
func (p *Piece) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParsePiece(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var in pieceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.Sequence != nil && in.SpecialToken == nil:
		*p = Seq(in.Sequence.ID, in.Sequence.TypeID)
	case in.SpecialToken != nil && in.Sequence == nil:
		if in.SpecialToken.ID == "" {
			return newTemplateError("special token piece without id")
		}
		*p = Special(in.SpecialToken.ID, in.SpecialToken.TypeID)
	default:
		return newTemplateError("piece must be exactly one of Sequence or SpecialToken")
	}
	return nil
}
