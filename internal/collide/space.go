package collide

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/zeebo/xxh3"
)

// NearCallback receives a candidate pair whose bounding boxes overlap.
// Either geom may be a Space.
type NearCallback func(g1, g2 Geom)

// Space is a geom container. Spaces nest: a space may be added to another
// space as an ordinary geom.
type Space interface {
	Geom
	Add(g Geom)
	Remove(g Geom)
	Geoms() []Geom
	// Collide reports every overlapping pair of direct children, skipping
	// pairs that share a body.
	Collide(cb NearCallback)
}

type spaceBase struct {
	geoms  []Geom
	parent Space
	data   any
}

func (s *spaceBase) Class() Class         { return ClassSpace }
func (s *spaceBase) Body() *dynamo.Body   { return nil }
func (s *spaceBase) Position() mgl64.Vec3 { return mgl64.Vec3{} }
func (s *spaceBase) Rotation() mgl64.Mat3 { return mgl64.Ident3() }
func (s *spaceBase) Data() any            { return s.data }
func (s *spaceBase) SetData(v any)        { s.data = v }
func (s *spaceBase) Space() Space         { return s.parent }
func (s *spaceBase) setSpace(p Space)     { s.parent = p }
func (s *spaceBase) Geoms() []Geom        { return s.geoms }

func (s *spaceBase) AABB() AABB {
	box := emptyAABB()
	for _, g := range s.geoms {
		box = box.Union(g.AABB())
	}
	return box
}

func (s *spaceBase) add(self Space, g Geom) {
	if old := g.Space(); old != nil {
		old.Remove(g)
	}
	g.setSpace(self)
	s.geoms = append(s.geoms, g)
}

func (s *spaceBase) Remove(g Geom) {
	for i, x := range s.geoms {
		if x == g {
			s.geoms = append(s.geoms[:i], s.geoms[i+1:]...)
			g.setSpace(nil)
			return
		}
	}
}

// SimpleSpace tests every pair of children.
type SimpleSpace struct {
	spaceBase
}

func NewSimpleSpace(parent Space) *SimpleSpace {
	s := &SimpleSpace{}
	if parent != nil {
		parent.Add(s)
	}
	return s
}

func (s *SimpleSpace) Add(g Geom) { s.add(s, g) }

func (s *SimpleSpace) Collide(cb NearCallback) {
	boxes := make([]AABB, len(s.geoms))
	for i, g := range s.geoms {
		boxes[i] = g.AABB()
	}
	for i := range s.geoms {
		for j := i + 1; j < len(s.geoms); j++ {
			if boxes[i].Overlaps(boxes[j]) && mayCollide(s.geoms[i], s.geoms[j]) {
				cb(s.geoms[i], s.geoms[j])
			}
		}
	}
}

// HashSpace buckets children into a uniform grid keyed by an xxh3 hash of
// the cell coordinates. Children spanning more than maxCells cells are
// tested against everything.
type HashSpace struct {
	spaceBase
	CellSize float64
}

const maxCells = 64

func NewHashSpace(parent Space) *HashSpace {
	s := &HashSpace{CellSize: 1}
	if parent != nil {
		parent.Add(s)
	}
	return s
}

func (s *HashSpace) Add(g Geom) { s.add(s, g) }

func cellKey(x, y, z int64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(x))
	binary.LittleEndian.PutUint64(buf[8:], uint64(y))
	binary.LittleEndian.PutUint64(buf[16:], uint64(z))
	return xxh3.Hash(buf[:])
}

func (s *HashSpace) Collide(cb NearCallback) {
	n := len(s.geoms)
	boxes := make([]AABB, n)
	cells := make(map[uint64][]int)
	var big []int
	for i, g := range s.geoms {
		box := g.AABB()
		boxes[i] = box
		lo, hi, ok := s.cellRange(box)
		if !ok {
			big = append(big, i)
			continue
		}
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					k := cellKey(x, y, z)
					cells[k] = append(cells[k], i)
				}
			}
		}
	}

	seen := make(map[[2]int]struct{})
	var pairs [][2]int
	try := func(i, j int) {
		if i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		p := [2]int{i, j}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		if boxes[i].Overlaps(boxes[j]) && mayCollide(s.geoms[i], s.geoms[j]) {
			pairs = append(pairs, p)
		}
	}
	for _, members := range cells {
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				try(members[a], members[b])
			}
		}
	}
	for _, i := range big {
		for j := 0; j < n; j++ {
			try(i, j)
		}
	}

	// map iteration order is random; report pairs deterministically
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	for _, p := range pairs {
		cb(s.geoms[p[0]], s.geoms[p[1]])
	}
}

func (s *HashSpace) cellRange(box AABB) (lo, hi [3]int64, ok bool) {
	count := 1.0
	for k := 0; k < 3; k++ {
		if math.IsInf(box.Min[k], 0) || math.IsInf(box.Max[k], 0) || box.Min[k] > box.Max[k] {
			return lo, hi, false
		}
		lo[k] = int64(math.Floor(box.Min[k] / s.CellSize))
		hi[k] = int64(math.Floor(box.Max[k] / s.CellSize))
		count *= float64(hi[k] - lo[k] + 1)
	}
	return lo, hi, count <= maxCells
}

// Collide2 reports the overlapping pairs between g1 and g2, descending one
// level into whichever argument is a space.
func Collide2(g1, g2 Geom, cb NearCallback) {
	if s, ok := g1.(Space); ok {
		box := g2.AABB()
		for _, c := range s.Geoms() {
			if c.AABB().Overlaps(box) && mayCollide(c, g2) {
				cb(c, g2)
			}
		}
		return
	}
	if s, ok := g2.(Space); ok {
		box := g1.AABB()
		for _, c := range s.Geoms() {
			if box.Overlaps(c.AABB()) && mayCollide(g1, c) {
				cb(g1, c)
			}
		}
		return
	}
	if g1.AABB().Overlaps(g2.AABB()) && mayCollide(g1, g2) {
		cb(g1, g2)
	}
}

// mayCollide rejects pairs on the same body and pairs of free geoms.
func mayCollide(g1, g2 Geom) bool {
	if g1.Class() == ClassSpace || g2.Class() == ClassSpace {
		return true
	}
	b1, b2 := g1.Body(), g2.Body()
	if b1 == nil && b2 == nil {
		return false
	}
	return b1 != b2
}
