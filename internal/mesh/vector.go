package mesh

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Record tags as they appear at the start of a line.
const (
	PositionTag = "v "
	TextureTag  = "vt "
	FaceTag     = "f "
)

// DefaultMarker is the sentinel the exporter writes into corrupted texture records.
const DefaultMarker = "#QNAN"

// PositionVector is a vertex position in model space.
type PositionVector struct {
	r3.Vec
}

// Distance returns the Euclidean distance between p and q.
func (p PositionVector) Distance(q PositionVector) float64 {
	return r3.Norm(r3.Sub(p.Vec, q.Vec))
}

// TextureVector is a 2D or 3D texture coordinate. Corrupted vectors carry no components.
type TextureVector struct {
	Components []float64
	Corrupted  bool
}

// Distance returns the Euclidean distance between t and u in texture space.
// The second result is false when the vectors cannot be compared: either one is
// corrupted or their dimensions differ.
func (t TextureVector) Distance(u TextureVector) (float64, bool) {
	if t.Corrupted || u.Corrupted {
		return 0, false
	}
	if len(t.Components) != len(u.Components) || len(t.Components) == 0 {
		return 0, false
	}
	return floats.Distance(t.Components, u.Components, 2), true
}

// ParsePosition parses a "v x y z" record.
func ParsePosition(text string) (PositionVector, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "v" {
		return PositionVector{}, &MalformedRecordError{Text: text, Message: "missing position tag"}
	}
	if len(fields) != 4 {
		return PositionVector{}, &MalformedRecordError{
			Text:    text,
			Message: "position record needs exactly 3 components, got " + strconv.Itoa(len(fields)-1),
		}
	}

	comps, err := parseComponents(text, fields[1:])
	if err != nil {
		return PositionVector{}, err
	}
	return PositionVector{Vec: r3.Vec{X: comps[0], Y: comps[1], Z: comps[2]}}, nil
}

// ParseTexture parses a "vt u v [w]" record. Any line containing marker is returned
// as a corrupted vector without looking at its components.
func ParseTexture(text, marker string) (TextureVector, error) {
	if marker != "" && strings.Contains(text, marker) {
		return TextureVector{Corrupted: true}, nil
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "vt" {
		return TextureVector{}, &MalformedRecordError{Text: text, Message: "missing texture tag"}
	}
	if len(fields) != 3 && len(fields) != 4 {
		return TextureVector{}, &MalformedRecordError{
			Text:    text,
			Message: "texture record needs 2 or 3 components, got " + strconv.Itoa(len(fields)-1),
		}
	}

	comps, err := parseComponents(text, fields[1:])
	if err != nil {
		return TextureVector{}, err
	}
	return TextureVector{Components: comps}, nil
}

func parseComponents(text string, fields []string) ([]float64, error) {
	comps := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &MalformedRecordError{
				Text:    text,
				Message: "component " + strconv.Itoa(i+1) + " is not a number",
				Cause:   err,
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &MalformedRecordError{
				Text:    text,
				Message: "component " + strconv.Itoa(i+1) + " is not finite",
			}
		}
		comps[i] = v
	}
	return comps, nil
}
