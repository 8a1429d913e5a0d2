package node

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/eve/evesim"
)

func newTestDevice(t *testing.T) *eve.Device {
	t.Helper()
	sim := evesim.New(eve.VariantFT800)
	dev, err := eve.Register(sim, eve.Config{
		Variant: eve.VariantFT800,
		Profile: eve.ProfileWQVGA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return dev
}

func TestPublishAndOpen(t *testing.T) {
	reg := NewRegistry()
	dev := newTestDevice(t)

	minor, err := reg.Publish("/dev/ft800", dev)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if minor != 0 {
		t.Errorf("minor = %d, want 0", minor)
	}

	h, err := reg.Open("/dev/ft800")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if _, err := reg.Open("/dev/ft801"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open unknown path: err = %v, want ErrNotFound", err)
	}
}

func TestPublishDuplicatePath(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Publish("/dev/ft800", newTestDevice(t)); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if _, err := reg.Publish("/dev/ft800", newTestDevice(t)); !errors.Is(err, ErrExists) {
		t.Errorf("second Publish: err = %v, want ErrExists", err)
	}
}

func TestUnlinkRemovesPath(t *testing.T) {
	reg := NewRegistry()
	dev := newTestDevice(t)

	if _, err := reg.Publish("/dev/ft800", dev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := reg.Unlink("/dev/ft800"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := reg.Open("/dev/ft800"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after Unlink: err = %v, want ErrNotFound", err)
	}
	if err := reg.Unlink("/dev/ft800"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Unlink: err = %v, want ErrNotFound", err)
	}
}

func TestUnlinkWhileOpenDefersDestroy(t *testing.T) {
	reg := NewRegistry()
	sim := evesim.New(eve.VariantFT800)
	dev, err := eve.Register(sim, eve.Config{
		Variant: eve.VariantFT800,
		Profile: eve.ProfileWQVGA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Publish("/dev/ft800", dev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	h, err := reg.Open("/dev/ft800")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := reg.Unlink("/dev/ft800"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if got := sim.Destroyed(); got != 0 {
		t.Fatalf("device destroyed with handle still open (count %d)", got)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sim.Destroyed(); got != 1 {
		t.Errorf("destroy count after last close = %d, want 1", got)
	}
}

func TestMinorReuse(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Publish("/dev/ft800", newTestDevice(t)); err != nil {
		t.Fatalf("Publish ft800: %v", err)
	}
	minor1, err := reg.Publish("/dev/ft801", newTestDevice(t))
	if err != nil {
		t.Fatalf("Publish ft801: %v", err)
	}
	if minor1 != 1 {
		t.Errorf("second minor = %d, want 1", minor1)
	}

	if err := reg.Unlink("/dev/ft800"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	minor, err := reg.Publish("/dev/ft800", newTestDevice(t))
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if minor != 0 {
		t.Errorf("recycled minor = %d, want 0", minor)
	}
}

func TestMinorExhaustion(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < maxMinors; i++ {
		if _, err := reg.Publish(fmt.Sprintf("/dev/eve%d", i), newTestDevice(t)); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if _, err := reg.Publish("/dev/overflow", newTestDevice(t)); !errors.Is(err, ErrNoFreeMinor) {
		t.Errorf("Publish past capacity: err = %v, want ErrNoFreeMinor", err)
	}
}

func TestList(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Publish("/dev/ft801", newTestDevice(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := reg.Publish("/dev/ft800", newTestDevice(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got := reg.List()
	if len(got) != 2 {
		t.Fatalf("List returned %d nodes, want 2", len(got))
	}
	if got[0].Path != "/dev/ft800" || got[1].Path != "/dev/ft801" {
		t.Errorf("List order = %q, %q; want sorted by path", got[0].Path, got[1].Path)
	}
}
