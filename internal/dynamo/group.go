package dynamo

// JointGroup owns joints that are destroyed together, typically the
// contact joints of one step.
type JointGroup struct {
	world  *World
	joints []Joint
}

func (g *JointGroup) add(j Joint) {
	j.base().group = g
	g.joints = append(g.joints, j)
}

func (g *JointGroup) Len() int { return len(g.joints) }

func (g *JointGroup) Joints() []Joint { return g.joints }

// Empty destroys every joint in the group.
func (g *JointGroup) Empty() {
	for _, j := range g.joints {
		g.world.removeJoint(j)
	}
	g.joints = g.joints[:0]
}
