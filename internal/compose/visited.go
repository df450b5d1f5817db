package compose

// lineage is the visited set of one traversal branch. Every forward-link
// step of the branch shares it and adds to it in place, so a document is
// expanded at most once per branch even when several paths reach it.
type lineage struct {
	seen map[string]struct{}
}

func newLineage() *lineage {
	return &lineage{seen: make(map[string]struct{})}
}

func (l *lineage) has(id string) bool {
	_, ok := l.seen[id]
	return ok
}

func (l *lineage) add(id string) {
	l.seen[id] = struct{}{}
}

// snapshot freezes the lineage as it is now.
func (l *lineage) snapshot() snapshot {
	return snapshot{seen: clone(l.seen)}
}

// snapshot is a read-only visited set. Each backlink branch forks its own
// lineage from the root's snapshot, so sibling backlink branches never see
// each other's documents.
type snapshot struct {
	seen map[string]struct{}
}

func (s snapshot) has(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// fork starts an independent lineage seeded with the snapshot's contents.
func (s snapshot) fork() *lineage {
	return &lineage{seen: clone(s.seen)}
}

func clone(m map[string]struct{}) map[string]struct{} {
	c := make(map[string]struct{}, len(m))
	for k := range m {
		c[k] = struct{}{}
	}
	return c
}
