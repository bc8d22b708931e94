package reconcile

import (
	"context"
	"testing"

	"nbtether/internal/directory"
	nberr "nbtether/internal/errors"
)

func TestSwitchTick_MatchingTargetIsNoop(t *testing.T) {
	f := newReconcileFixture(t)
	f.dir.AddEndpoint(directory.Endpoint{Name: "ep-a", PrivateAddress: "10.0.0.5"})
	if err := f.store.Save("ep-a"); err != nil {
		t.Fatal(err)
	}
	f.dir.Desired = "ep-a"

	if err := f.sw.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.dir.MutatingCalls() != 0 || f.tun.Starts() != 0 || f.tun.Stops() != 0 {
		t.Error("a matching switch tick must perform zero mutating calls")
	}
}

func TestSwitchTick_BothUnsetIsNoop(t *testing.T) {
	f := newReconcileFixture(t)

	if err := f.sw.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.dir.MutatingCalls() != 0 {
		t.Error("nothing to do when neither side names an endpoint")
	}
}

func TestSwitchTick_ConnectsFromUnset(t *testing.T) {
	f := newReconcileFixture(t)
	f.dir.AddEndpoint(directory.Endpoint{Name: "ep-b", PrivateAddress: "10.0.0.6"})
	f.dir.Desired = "ep-b"
	ctx := context.Background()

	if err := f.sw.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	bound, _ := f.store.Load()
	if bound != "ep-b" {
		t.Errorf("binding = %q, want %q", bound, "ep-b")
	}
	pub, err := f.conn.Keys.CurrentPublicKey()
	if err != nil {
		t.Fatal(err)
	}
	ep, _ := f.dir.Describe(ctx, "ep-b")
	if !ep.HasKey(pub) {
		t.Error("the new endpoint should hold the notebook's key")
	}
}

func TestSwitchTick_MovesBetweenEndpoints(t *testing.T) {
	f := newReconcileFixture(t)
	f.dir.AddEndpoint(directory.Endpoint{Name: "ep-a", PrivateAddress: "10.0.0.5"})
	f.dir.AddEndpoint(directory.Endpoint{Name: "ep-b", PrivateAddress: "10.0.0.6"})
	ctx := context.Background()
	if err := f.conn.Connect(ctx, "ep-a"); err != nil {
		t.Fatal(err)
	}

	f.dir.Desired = "ep-b"
	if err := f.sw.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	bound, _ := f.store.Load()
	if bound != "ep-b" {
		t.Errorf("binding = %q, want %q", bound, "ep-b")
	}
	pub, _ := f.conn.Keys.CurrentPublicKey()
	matcher := f.conn.Matcher
	oldEp, _ := f.dir.Describe(ctx, "ep-a")
	if len(matcher.Owned(oldEp.PublicKeys)) != 0 {
		t.Error("the old endpoint should hold none of the notebook's keys")
	}
	newEp, _ := f.dir.Describe(ctx, "ep-b")
	if !newEp.HasKey(pub) {
		t.Error("the new endpoint should hold the notebook's current key")
	}
	if !f.tun.Running() {
		t.Error("tunnel should be up against the new endpoint")
	}
}

func TestSwitchTick_DisconnectsWhenDesiredUnset(t *testing.T) {
	f := newReconcileFixture(t)
	f.dir.AddEndpoint(directory.Endpoint{Name: "ep-a", PrivateAddress: "10.0.0.5"})
	ctx := context.Background()
	if err := f.conn.Connect(ctx, "ep-a"); err != nil {
		t.Fatal(err)
	}

	f.dir.Desired = ""
	if err := f.sw.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	bound, _ := f.store.Load()
	if bound != "" {
		t.Errorf("binding = %q, want unset", bound)
	}
	if f.tun.Running() {
		t.Error("tunnel should be stopped")
	}
}

func TestSwitchTick_TagLookupErrorFailsTick(t *testing.T) {
	f := newReconcileFixture(t)
	f.dir.TagsErr = nberr.New("throttled")

	if err := f.sw.Tick(context.Background()); err == nil {
		t.Fatal("a failed desired-target read must fail the tick")
	}
}
