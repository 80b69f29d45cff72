package analysis

import (
	"testing"
	"time"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

func newTestSession(t *testing.T, n int, pairs [][2]int) *Session {
	t.Helper()
	store := linkograph.NewMoveStore()
	for i := 0; i < n; i++ {
		store.Append("", "move")
	}
	store.Seal()
	ls, err := linkograph.NewLinkSet(store)
	if err != nil {
		t.Fatalf("new link set: %v", err)
	}
	for _, p := range pairs {
		if err := ls.Add(p[0], p[1]); err != nil {
			t.Fatalf("add %v: %v", p, err)
		}
	}
	sess, err := NewSession("s1", "test session", store, ls)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func TestSession_EditInvalidatesMetrics(t *testing.T) {
	sess := newTestSession(t, 5, [][2]int{{1, 3}})

	snap, err := sess.Metrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if snap.LinkCount != 1 {
		t.Fatalf("expected 1 link, got %d", snap.LinkCount)
	}

	if err := sess.AddLink(2, 4); err != nil {
		t.Fatalf("add link: %v", err)
	}
	snap, err = sess.Metrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if snap.LinkCount != 2 {
		t.Errorf("expected 2 links after edit, got %d", snap.LinkCount)
	}

	if err := sess.RemoveLink(1, 3); err != nil {
		t.Fatalf("remove link: %v", err)
	}
	snap, err = sess.Metrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if snap.LinkCount != 1 {
		t.Errorf("expected 1 link after removal, got %d", snap.LinkCount)
	}
}

func TestSession_RejectsBadEdit(t *testing.T) {
	sess := newTestSession(t, 5, nil)
	if err := sess.AddLink(2, 2); err == nil {
		t.Error("self link: expected error")
	}
	if err := sess.AddLink(1, 7); err == nil {
		t.Error("out of range: expected error")
	}
}

func TestSession_LinksCopyIsIndependent(t *testing.T) {
	sess := newTestSession(t, 5, [][2]int{{1, 3}})
	snapshot := sess.LinksCopy()
	if err := sess.AddLink(2, 4); err != nil {
		t.Fatalf("add link: %v", err)
	}
	if snapshot.Total() != 1 {
		t.Errorf("copy mutated by later edit: %d links", snapshot.Total())
	}
}

func TestRegistry_PutGetDelete(t *testing.T) {
	r := NewRegistry(time.Hour)
	sess := newTestSession(t, 3, nil)
	r.Put(sess)

	if got := r.Get("s1"); got != sess {
		t.Fatal("expected same session back")
	}
	if got := r.Get("missing"); got != nil {
		t.Fatal("expected nil for unknown id")
	}
	if !r.Delete("s1") {
		t.Fatal("expected delete to report success")
	}
	if r.Delete("s1") {
		t.Fatal("expected second delete to report failure")
	}
}

func TestRegistry_CleanupEvictsIdleSessions(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	sess := newTestSession(t, 3, nil)
	r.Put(sess)

	time.Sleep(25 * time.Millisecond)
	r.Cleanup()
	if got := r.Get("s1"); got != nil {
		t.Error("expected idle session evicted")
	}
}
