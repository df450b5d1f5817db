package compose

import "testing"

func TestLineageSharedInPlace(t *testing.T) {
	l := newLineage()
	shared := l
	l.add("a.md")
	if !shared.has("a.md") {
		t.Error("lineage should be shared by reference")
	}
}

func TestSnapshotForkIsolation(t *testing.T) {
	l := newLineage()
	l.add("root.md")
	snap := l.snapshot()

	first := snap.fork()
	second := snap.fork()
	first.add("x.md")

	if second.has("x.md") {
		t.Error("sibling forks must not share additions")
	}
	if snap.has("x.md") {
		t.Error("snapshot must not change when a fork is mutated")
	}
	if !second.has("root.md") || !first.has("root.md") {
		t.Error("forks must carry the snapshot's contents")
	}

	l.add("later.md")
	if snap.has("later.md") {
		t.Error("snapshot must not observe later lineage additions")
	}
}
