package collision

import "github.com/san-kum/dynbridge/internal/kin"

// AddBody registers one geometry per link of body in link index order and
// returns the id of link 0, so link i has id base+i. Links of a static
// model are marked static. Parent and child links never interfere; without
// selfCollision no two links of the body do.
func AddBody(d Detector, body *kin.Body, selfCollision bool) int {
	base := d.NumGeometries()
	static := body.IsStaticModel()
	for _, l := range body.Links() {
		id := d.AddGeometry(l.Shape)
		if static {
			d.SetGeometryStatic(id, true)
		}
	}
	links := body.Links()
	for i, l := range links {
		if p := l.Parent(); p != nil {
			d.SetNonInterferingPair(base+i, base+p.Index())
		}
		if selfCollision {
			continue
		}
		for j := i + 1; j < len(links); j++ {
			d.SetNonInterferingPair(base+i, base+j)
		}
	}
	return base
}
