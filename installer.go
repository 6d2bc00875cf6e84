package arbiter

// Installer partitions a consistent resolved Graph into ordered phases of
// mutually-independent projects: every project in phase k+1 depends only
// on projects already placed in phases 0..k, so everything within one
// phase can be installed in parallel.
type Installer struct {
	phases [][]ResolvedDependency
}

// NewInstaller computes the phase layering for g. g must be acyclic and
// consistent (every edge endpoint present as a node); a node that cannot be
// placed indicates a violated graph invariant and is reported as an
// InternalError rather than silently dropped.
func NewInstaller(g *Graph) (*Installer, error) {
	nodes := g.Nodes()
	placed := newProjectSet()
	remaining := make([]ResolvedDependency, len(nodes))
	copy(remaining, nodes)

	var phases [][]ResolvedDependency
	for len(remaining) > 0 {
		var phase []ResolvedDependency
		var next []ResolvedDependency
		for _, rd := range remaining {
			ready := true
			for _, dep := range g.DependenciesOf(rd.Project) {
				if !placed.Has(dep) {
					ready = false
					break
				}
			}
			if ready {
				phase = append(phase, rd)
			} else {
				next = append(next, rd)
			}
		}
		if len(phase) == 0 {
			return nil, &InternalError{Detail: "installer: graph has a cycle or a dangling edge; could not place all nodes"}
		}
		insertionSortResolved(phase)
		for _, rd := range phase {
			placed.Add(rd.Project)
		}
		phases = append(phases, phase)
		remaining = next
	}
	return &Installer{phases: phases}, nil
}

func insertionSortResolved(rds []ResolvedDependency) {
	for i := 1; i < len(rds); i++ {
		for j := i; j > 0 && rds[j].Project.LessThan(rds[j-1].Project); j-- {
			rds[j], rds[j-1] = rds[j-1], rds[j]
		}
	}
}

// PhaseCount returns the number of phases.
func (in *Installer) PhaseCount() int {
	return len(in.phases)
}

// InPhase returns the projects in phase i, in ascending ProjectIdentifier
// order. It panics if i is out of range, matching the O(1) index-access
// contract the rest of the package gives for graph queries.
func (in *Installer) InPhase(i int) []ResolvedDependency {
	return in.phases[i]
}
