package mesh

import "strings"

// pairOffsets are the fixed distances, counted back from a face line, of the
// position and texture records for each of the face's three vertices.
var pairOffsets = [3]struct {
	position int
	texture  int
}{
	{position: 9, texture: 7},
	{position: 6, texture: 4},
	{position: 3, texture: 1},
}

// AttributePair is one vertex of a face: its position record and texture record.
type AttributePair struct {
	Slot         int // 0..2, which offset pair produced this vertex
	PositionLine int
	TextureLine  int
	PositionText string
	TextureText  string
	Position     PositionVector
	Texture      TextureVector
	// Err holds the first parse failure for either record, if any.
	Err error
}

// Valid reports whether the pair can serve as a repair candidate.
func (p *AttributePair) Valid() bool {
	return p.Err == nil && !p.Texture.Corrupted
}

// FaceGroup is the set of attribute pairs preceding one face record.
type FaceGroup struct {
	FaceLine int
	Pairs    []AttributePair
}

// Siblings returns the pairs of the group other than the one at pairIndex.
func (g *FaceGroup) Siblings(pairIndex int) []AttributePair {
	out := make([]AttributePair, 0, len(g.Pairs))
	for i := range g.Pairs {
		if i != pairIndex {
			out = append(out, g.Pairs[i])
		}
	}
	return out
}

// CorruptedCount returns how many pairs carry a corrupted texture vector.
func (g *FaceGroup) CorruptedCount() int {
	n := 0
	for i := range g.Pairs {
		if g.Pairs[i].Texture.Corrupted {
			n++
		}
	}
	return n
}

// Anomaly is a corrupted texture record awaiting repair, keyed by its line number.
type Anomaly struct {
	Line      int
	Group     *FaceGroup
	PairIndex int
}

// Pair returns the corrupted pair.
func (a Anomaly) Pair() *AttributePair {
	return &a.Group.Pairs[a.PairIndex]
}

// Siblings returns the other pairs of the anomaly's face group.
func (a Anomaly) Siblings() []AttributePair {
	return a.Group.Siblings(a.PairIndex)
}

// Index is the read-only result of scanning a file: every face group in file
// order plus the anomalies found in them. It is safe to share between goroutines.
type Index struct {
	lineCount int
	groups    []*FaceGroup
	byFace    map[int]*FaceGroup
	anomalies []Anomaly
	skipped   []Anomaly
	pairs     int
	malformed int
}

// BuildIndex scans store once and groups the records preceding every face line.
//
// The layout is assumed, not validated: when the records at the expected offsets
// do not carry the position and texture tags, the group silently gets fewer pairs.
// Groups with more than one corrupted pair are not repaired; their anomalies are
// reported through Skipped.
func BuildIndex(store *LineStore, marker string) *Index {
	if marker == "" {
		marker = DefaultMarker
	}

	idx := &Index{
		lineCount: store.Len(),
		byFace:    make(map[int]*FaceGroup),
	}

	for i := 1; i <= store.Len(); i++ {
		if !strings.HasPrefix(strings.TrimSpace(store.Line(i)), FaceTag) {
			continue
		}

		group := &FaceGroup{FaceLine: i, Pairs: make([]AttributePair, 0, len(pairOffsets))}
		for slot, off := range pairOffsets {
			posLine, texLine := i-off.position, i-off.texture
			posText, texText := store.Line(posLine), store.Line(texLine)
			if !strings.HasPrefix(posText, PositionTag) || !strings.HasPrefix(texText, TextureTag) {
				continue
			}
			group.Pairs = append(group.Pairs, newPair(slot, posLine, texLine, posText, texText, marker))
		}

		idx.add(group)
	}

	return idx
}

func newPair(slot, posLine, texLine int, posText, texText, marker string) AttributePair {
	pair := AttributePair{
		Slot:         slot,
		PositionLine: posLine,
		TextureLine:  texLine,
		PositionText: posText,
		TextureText:  texText,
	}

	pos, err := ParsePosition(posText)
	if err != nil {
		pair.Err = err
	}
	pair.Position = pos

	tex, err := ParseTexture(texText, marker)
	if err != nil && pair.Err == nil {
		pair.Err = err
	}
	pair.Texture = tex

	return pair
}

func (idx *Index) add(group *FaceGroup) {
	idx.groups = append(idx.groups, group)
	idx.byFace[group.FaceLine] = group
	idx.pairs += len(group.Pairs)

	multi := group.CorruptedCount() > 1
	for i := range group.Pairs {
		p := &group.Pairs[i]
		if p.Err != nil {
			idx.malformed++
		}
		if !p.Texture.Corrupted {
			continue
		}
		a := Anomaly{Line: p.TextureLine, Group: group, PairIndex: i}
		if multi {
			idx.skipped = append(idx.skipped, a)
		} else {
			idx.anomalies = append(idx.anomalies, a)
		}
	}
}

// LineCount returns the number of lines in the indexed file.
func (idx *Index) LineCount() int {
	return idx.lineCount
}

// Groups returns every face group in file order.
func (idx *Index) Groups() []*FaceGroup {
	return idx.groups
}

// Group returns the face group whose face record is on faceLine.
func (idx *Index) Group(faceLine int) (*FaceGroup, bool) {
	g, ok := idx.byFace[faceLine]
	return g, ok
}

// Anomalies returns the anomalies eligible for repair, in file order.
func (idx *Index) Anomalies() []Anomaly {
	return idx.anomalies
}

// Skipped returns anomalies from groups with more than one corrupted pair.
func (idx *Index) Skipped() []Anomaly {
	return idx.skipped
}

// PairCount returns the total number of attribute pairs across all groups.
func (idx *Index) PairCount() int {
	return idx.pairs
}

// MalformedCount returns the number of pairs with unparseable records.
func (idx *Index) MalformedCount() int {
	return idx.malformed
}
