package device

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynbridge/internal/dynamo"
	"github.com/san-kum/dynbridge/internal/kin"
	"github.com/sirupsen/logrus"
)

const NailDriverModule = "NailDriver"

// NailedObject is a body fastened to the environment by one or more nails.
// Its holding force grows with every nail.
type NailedObject struct {
	body     *dynamo.Body
	joint    *dynamo.Fixed
	feedback dynamo.Feedback
	normal   mgl64.Vec3

	MaxFasteningForce float64
	Nails             int
}

func newNailedObject(w *dynamo.World, b *dynamo.Body) *NailedObject {
	o := &NailedObject{body: b}
	o.joint = w.CreateFixed(nil)
	o.joint.Attach(b, nil)
	o.joint.SetFeedback(&o.feedback)
	return o
}

func (o *NailedObject) Body() *dynamo.Body { return o.body }

func (o *NailedObject) addNail(force float64, n mgl64.Vec3) {
	o.MaxFasteningForce += force
	o.normal = n
	o.Nails++
}

// FasteningForce is the last reaction of the nails along the firing
// direction.
func (o *NailedObject) FasteningForce() float64 {
	return o.normal.Dot(o.feedback.F1)
}

func (o *NailedObject) limited() bool {
	return o.FasteningForce() > o.MaxFasteningForce
}

func (o *NailedObject) destroy(w *dynamo.World) {
	o.joint.SetFeedback(nil)
	w.DestroyJoint(o.joint)
}

type driver struct {
	mount
	dev *kin.NailDriver
	// contacted is set by the near hook and cleared after every step.
	contacted bool
	apart     int
}

// NailDrivers fires a nail into the object under an active, ready driver.
// A driver becomes ready again after DistantCheckCount consecutive steps
// without contact.
type NailDrivers struct {
	Dot               float64
	Distance          float64
	DistantCheckCount int

	// Held, when set, keeps nailed objects that exceed their limit
	// fastened while it reports true for their body.
	Held func(b *dynamo.Body) bool

	log     *logrus.Entry
	drivers *orderedmap.OrderedMap[*dynamo.Body, *driver]
	objects *orderedmap.OrderedMap[*dynamo.Body, *NailedObject]
}

func NewNailDrivers(dot, distance float64, distantCheckCount int, log *logrus.Entry) *NailDrivers {
	return &NailDrivers{
		Dot:               dot,
		Distance:          distance,
		DistantCheckCount: distantCheckCount,
		log:               logger(log).WithField("device", NailDriverModule),
		drivers:           orderedmap.NewOrderedMap[*dynamo.Body, *driver](),
		objects:           orderedmap.NewOrderedMap[*dynamo.Body, *NailedObject](),
	}
}

func (nd *NailDrivers) Name() string { return NailDriverModule }

func (nd *NailDrivers) Empty() bool { return nd.drivers.Len() == 0 }

func (nd *NailDrivers) Attach(b *dynamo.Body, link *kin.Link) bool {
	if b == nil {
		return false
	}
	taken := false
	for _, d := range kin.DevicesOf[*kin.NailDriver](link.Body()) {
		if d.Link() != link {
			continue
		}
		nd.drivers.Set(b, &driver{mount: newMount(b, link, d.PLocal, d.Normal), dev: d})
		taken = true
	}
	return taken
}

func (nd *NailDrivers) Near(w *dynamo.World, b1, b2 *dynamo.Body, contacts []dynamo.ContactGeom) bool {
	d, object, first := nd.find(b1, b2)
	if d == nil {
		return false
	}
	d.contacted = true
	n := d.countFacing(contacts, first, nd.Dot, nd.Distance)
	if n == 0 || !d.dev.On() || !d.dev.Ready() {
		return false
	}
	nd.fire(w, d, object)
	return false
}

func (nd *NailDrivers) find(b1, b2 *dynamo.Body) (*driver, *dynamo.Body, bool) {
	if d, ok := nd.drivers.Get(b1); ok {
		return d, b2, true
	}
	if d, ok := nd.drivers.Get(b2); ok {
		return d, b1, false
	}
	return nil, nil, false
}

func (nd *NailDrivers) fire(w *dynamo.World, d *driver, object *dynamo.Body) {
	o, ok := nd.objects.Get(object)
	if !ok {
		o = newNailedObject(w, object)
		nd.objects.Set(object, o)
	}
	o.addNail(d.dev.MaxFasteningForce, d.worldNormal())
	d.dev.SetReady(false)
	d.apart = 0
	nd.log.WithFields(logrus.Fields{"name": d.dev.Name(), "nails": o.Nails}).Info("fired")
}

// PostStep re-arms drivers that stayed away from everything long enough
// and pulls out nails whose holding force was exceeded.
func (nd *NailDrivers) PostStep(w *dynamo.World, _ float64) {
	for el := nd.drivers.Front(); el != nil; el = el.Next() {
		d := el.Value
		if d.contacted {
			d.apart = 0
		} else {
			d.apart++
		}
		d.contacted = false
		if !d.dev.Ready() && d.apart >= nd.DistantCheckCount {
			d.dev.SetReady(true)
		}
	}

	var pulled []*dynamo.Body
	for el := nd.objects.Front(); el != nil; el = el.Next() {
		o := el.Value
		if !o.limited() {
			continue
		}
		nd.log.WithFields(logrus.Fields{"force": o.FasteningForce(), "limit": o.MaxFasteningForce}).
			Info("fastening force limit exceeded")
		if nd.Held != nil && nd.Held(o.body) {
			continue
		}
		o.destroy(w)
		pulled = append(pulled, el.Key)
	}
	for _, b := range pulled {
		nd.objects.Delete(b)
	}
}

func (nd *NailDrivers) Reset() {
	nd.drivers = orderedmap.NewOrderedMap[*dynamo.Body, *driver]()
	nd.objects = orderedmap.NewOrderedMap[*dynamo.Body, *NailedObject]()
}

func (nd *NailDrivers) NailedObject(b *dynamo.Body) (*NailedObject, bool) {
	return nd.objects.Get(b)
}

func (nd *NailDrivers) SetAllOn(on bool) {
	for el := nd.drivers.Front(); el != nil; el = el.Next() {
		el.Value.dev.SetOn(on)
	}
}
