package core

import "testing"

func TestRegistryRegisterAndSnapshotOrder(t *testing.T) {
	r := NewRegistry()

	a := NewClient()
	b := NewClient()
	c := NewClient()

	r.Register(a)
	r.Register(b)
	r.Register(c)

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 clients, got %d", len(snap))
	}
	if snap[0] != a || snap[1] != b || snap[2] != c {
		t.Fatalf("snapshot not in registration order")
	}

	// Registering the same connection twice is a no-op.
	r.Register(a)
	if r.Len() != 3 {
		t.Fatalf("expected 3 clients after duplicate register, got %d", r.Len())
	}
}

func TestRegistryClassifyOverwrites(t *testing.T) {
	r := NewRegistry()
	c := NewClient()
	r.Register(c)

	if !r.Classify(c.ID, "alice", RoleParticipant) {
		t.Fatalf("classify of registered connection failed")
	}
	if c.Identity != "alice" || c.Role != RoleParticipant {
		t.Fatalf("unexpected state after classify: %q %v", c.Identity, c.Role)
	}

	// A second classification is a correction, not an error.
	if !r.Classify(c.ID, "bob", RoleParticipant) {
		t.Fatalf("re-classify failed")
	}
	if c.Identity != "bob" {
		t.Fatalf("re-classify did not overwrite identity: %q", c.Identity)
	}

	// Privileged classification without identity keeps the current one.
	if !r.Classify(c.ID, "", RolePrivileged) {
		t.Fatalf("privileged classify failed")
	}
	if c.Identity != "bob" || c.Role != RolePrivileged {
		t.Fatalf("unexpected state after privileged classify: %q %v", c.Identity, c.Role)
	}
}

func TestRegistryClassifyUnknownConnection(t *testing.T) {
	r := NewRegistry()
	if r.Classify("nope", "alice", RoleParticipant) {
		t.Fatalf("classify of unknown connection should fail")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	c := NewClient()
	r.Register(c)

	if !r.Unregister(c.ID) {
		t.Fatalf("first unregister should report removal")
	}
	if r.Unregister(c.ID) {
		t.Fatalf("second unregister should be a no-op")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	a := NewClient()
	b := NewClient()
	r.Register(a)
	r.Register(b)

	snap := r.Snapshot()
	r.Unregister(a.ID)

	if len(snap) != 2 {
		t.Fatalf("snapshot mutated by later unregister")
	}
}
