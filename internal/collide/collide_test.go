package collide

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
)

func TestSphereSphere(t *testing.T) {
	a := NewSphere(0.5)
	a.SetPosition(mgl64.Vec3{0, 0, 0.9})
	b := NewSphere(0.5)

	cs := Collide(a, b, MaxContacts)
	if len(cs) != 1 {
		t.Fatalf("got %d contacts, want 1", len(cs))
	}
	c := cs[0]
	if math.Abs(c.Depth-0.1) > 1e-12 {
		t.Errorf("depth = %v, want 0.1", c.Depth)
	}
	if c.Normal.Sub(mgl64.Vec3{0, 0, 1}).Len() > 1e-12 {
		t.Errorf("normal = %v, want +z", c.Normal)
	}
	if math.Abs(c.Pos[2]-0.45) > 1e-12 {
		t.Errorf("pos = %v", c.Pos)
	}

	a.SetPosition(mgl64.Vec3{0, 0, 1.1})
	if cs := Collide(a, b, MaxContacts); len(cs) != 0 {
		t.Errorf("separated spheres produced %d contacts", len(cs))
	}
}

func TestSphereBox(t *testing.T) {
	s := NewSphere(0.5)
	s.SetPosition(mgl64.Vec3{0, 0, 0.9})
	floor := NewBox(mgl64.Vec3{4, 4, 1})

	for _, tt := range []struct {
		name   string
		g1, g2 Geom
		normal mgl64.Vec3
	}{
		{"sphere first", s, floor, mgl64.Vec3{0, 0, 1}},
		{"box first", floor, s, mgl64.Vec3{0, 0, -1}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cs := Collide(tt.g1, tt.g2, MaxContacts)
			if len(cs) != 1 {
				t.Fatalf("got %d contacts", len(cs))
			}
			if math.Abs(cs[0].Depth-0.1) > 1e-12 {
				t.Errorf("depth = %v", cs[0].Depth)
			}
			if cs[0].Normal.Sub(tt.normal).Len() > 1e-12 {
				t.Errorf("normal = %v, want %v", cs[0].Normal, tt.normal)
			}
		})
	}
}

func TestBoxOnBoxFace(t *testing.T) {
	top := NewBox(mgl64.Vec3{1, 1, 1})
	top.SetPosition(mgl64.Vec3{0, 0, 0.99})
	floor := NewBox(mgl64.Vec3{10, 10, 1})

	cs := Collide(top, floor, MaxContacts)
	if len(cs) != 4 {
		t.Fatalf("got %d contacts, want 4 corners", len(cs))
	}
	for _, c := range cs {
		if c.Normal.Sub(mgl64.Vec3{0, 0, 1}).Len() > 1e-6 {
			t.Errorf("normal = %v", c.Normal)
		}
		if math.Abs(c.Depth-0.01) > 1e-6 {
			t.Errorf("depth = %v, want 0.01", c.Depth)
		}
		if math.Abs(math.Abs(c.Pos[0])-0.5) > 1e-6 || math.Abs(math.Abs(c.Pos[1])-0.5) > 1e-6 {
			t.Errorf("contact not at a corner: %v", c.Pos)
		}
	}
}

func TestContactCap(t *testing.T) {
	top := NewBox(mgl64.Vec3{1, 1, 1})
	top.SetPosition(mgl64.Vec3{0, 0, 0.99})
	floor := NewBox(mgl64.Vec3{10, 10, 1})
	if cs := Collide(top, floor, 2); len(cs) != 2 {
		t.Errorf("got %d contacts with cap 2", len(cs))
	}
}

func TestCylinderOnBox(t *testing.T) {
	cyl := NewCylinder(0.5, 1)
	cyl.SetPosition(mgl64.Vec3{0, 0, 0.98})
	floor := NewBox(mgl64.Vec3{10, 10, 1})

	cs := Collide(cyl, floor, MaxContacts)
	if len(cs) < 3 {
		t.Fatalf("standing cylinder got %d contacts", len(cs))
	}
	for _, c := range cs {
		if c.Normal[2] < 0.999 {
			t.Errorf("normal = %v", c.Normal)
		}
		if math.Abs(c.Depth-0.02) > 1e-3 {
			t.Errorf("depth = %v", c.Depth)
		}
	}

	// lying on its side along x
	cyl.SetRotation(mgl64.Rotate3DY(math.Pi / 2))
	cyl.SetPosition(mgl64.Vec3{0, 0, 0.98})
	cs = Collide(cyl, floor, MaxContacts)
	if len(cs) == 0 {
		t.Fatal("lying cylinder got no contacts")
	}
	for _, c := range cs {
		if c.Normal[2] < 0.99 {
			t.Errorf("normal = %v", c.Normal)
		}
	}
}

func TestTriMeshContacts(t *testing.T) {
	data := &TriMeshData{
		Vertices: []mgl32.Vec3{{-2, -2, 0}, {2, -2, 0}, {2, 2, 0}, {-2, 2, 0}},
		Triangles: [][3]int32{
			{0, 1, 2},
			{0, 2, 3},
		},
	}
	mesh, err := NewTriMesh(data)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSphere(0.5)
	s.SetPosition(mgl64.Vec3{0.5, -0.3, 0.45})

	cs := Collide(s, mesh, MaxContacts)
	if len(cs) == 0 {
		t.Fatal("no contacts against mesh")
	}
	for _, c := range cs {
		if math.Abs(c.Normal[2]) < 0.99 {
			t.Errorf("normal = %v", c.Normal)
		}
		if math.Abs(c.Depth-0.05) > 1e-3 {
			t.Errorf("depth = %v, want 0.05", c.Depth)
		}
	}

	if _, err := NewTriMesh(&TriMeshData{}); err != ErrDegenerateMesh {
		t.Errorf("empty mesh err = %v", err)
	}
}

func TestGeomFollowsBody(t *testing.T) {
	w := dynamo.NewWorld()
	b := w.CreateBody()
	b.SetPosition(mgl64.Vec3{1, 0, 0})
	b.SetRotation(mgl64.Rotate3DZ(math.Pi / 2))

	g := NewBox(mgl64.Vec3{1, 1, 1})
	g.SetBody(b)
	g.SetOffsetPosition(mgl64.Vec3{1, 0, 0})
	if p := g.Position(); p.Sub(mgl64.Vec3{1, 1, 0}).Len() > 1e-12 {
		t.Errorf("position = %v, want (1,1,0)", p)
	}
}

func TestSpaces(t *testing.T) {
	w := dynamo.NewWorld()
	b1, b2 := w.CreateBody(), w.CreateBody()

	for _, newSpace := range []func(Space) Space{
		func(p Space) Space { return NewSimpleSpace(p) },
		func(p Space) Space { return NewHashSpace(p) },
	} {
		root := newSpace(nil)
		s1 := newSpace(root)
		s2 := newSpace(root)

		a := NewSphere(0.5)
		a.SetBody(b1)
		s1.Add(a)
		a2 := NewSphere(0.5)
		a2.SetBody(b1)
		s1.Add(a2)
		c := NewSphere(0.5)
		c.SetBody(b2)
		s2.Add(c)

		var spacePairs, leafPairs int
		var cb NearCallback
		cb = func(g1, g2 Geom) {
			if g1.Class() == ClassSpace || g2.Class() == ClassSpace {
				spacePairs++
				Collide2(g1, g2, cb)
				return
			}
			leafPairs++
		}
		root.Collide(cb)
		if spacePairs == 0 {
			t.Errorf("%T: body spaces never paired", root)
		}
		if leafPairs != 2 {
			t.Errorf("%T: got %d leaf pairs, want 2", root, leafPairs)
		}

		var same int
		s1.Collide(func(Geom, Geom) { same++ })
		if same != 0 {
			t.Errorf("%T: geoms on one body were paired", root)
		}
	}
}

func TestHashSpaceBigGeom(t *testing.T) {
	s := NewHashSpace(nil)
	s.CellSize = 0.5
	w := dynamo.NewWorld()
	floor := NewBox(mgl64.Vec3{100, 100, 1})
	s.Add(floor)
	ball := NewSphere(0.2)
	ball.SetBody(w.CreateBody())
	ball.SetPosition(mgl64.Vec3{})
	s.Add(ball)

	n := 0
	s.Collide(func(Geom, Geom) { n++ })
	if n != 1 {
		t.Errorf("got %d pairs, want 1", n)
	}
}
