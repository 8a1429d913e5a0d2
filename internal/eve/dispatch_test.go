package eve_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/eve/evesim"
)

func TestPutDisplayList(t *testing.T) {
	dev, sim := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	list := []byte{0x00, 0x00, 0x00, 0x02, 0x07, 0x00, 0x00, 0x26, 0x00, 0x00, 0x00, 0x00}
	if err := h.PutDisplayList(list); err != nil {
		t.Fatalf("PutDisplayList: %v", err)
	}

	if got := sim.PeekBlock(eve.RAMDL, len(list)); !bytes.Equal(got, list) {
		t.Errorf("display-list RAM = %x, want %x", got, list)
	}

	stats := dev.GetStats()
	if stats.BusWrites != 1 {
		t.Errorf("BusWrites = %d, want 1", stats.BusWrites)
	}
	if stats.BytesWritten != uint64(len(list)) {
		t.Errorf("BytesWritten = %d, want %d", stats.BytesWritten, len(list))
	}
}

func TestPutDisplayListValidation(t *testing.T) {
	dev, _ := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"zero length", []byte{}},
		{"not word multiple", make([]byte, 6)},
		{"single byte", make([]byte, 1)},
		{"oversized", make([]byte, eve.RAMDLSize+4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.PutDisplayList(tt.data); !errors.Is(err, eve.ErrInvalidArgument) {
				t.Errorf("PutDisplayList: err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestPutDisplayListMaxSize(t *testing.T) {
	dev, _ := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	// A list filling display-list RAM exactly is legal.
	if err := h.PutDisplayList(make([]byte, eve.RAMDLSize)); err != nil {
		t.Errorf("PutDisplayList at RAMDLSize: %v", err)
	}
}

func TestGetResult32(t *testing.T) {
	dev, sim := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	sim.PokeWord(eve.RAMDL+64, 0xdeadbeef)

	v, err := h.GetResult32(64)
	if err != nil {
		t.Fatalf("GetResult32: %v", err)
	}
	if v != 0xdeadbeef {
		t.Errorf("GetResult32 = %#08x, want 0xdeadbeef", v)
	}

	if got := dev.GetStats().BusReads; got != 1 {
		t.Errorf("BusReads = %d, want 1", got)
	}
}

func TestGetResult32Validation(t *testing.T) {
	dev, _ := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	tests := []struct {
		name   string
		offset uint32
	}{
		{"misaligned", 13},
		{"off by one", 1},
		{"at end of ram", eve.RAMDLSize},
		{"past end of ram", eve.RAMDLSize + 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.GetResult32(tt.offset); !errors.Is(err, eve.ErrInvalidArgument) {
				t.Errorf("GetResult32(%d): err = %v, want ErrInvalidArgument", tt.offset, err)
			}
		})
	}
}

func TestGetTracker(t *testing.T) {
	dev, sim := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	sim.PokeWord(eve.RegTracker, 0x12340005)

	v, err := h.GetTracker()
	if err != nil {
		t.Fatalf("GetTracker: %v", err)
	}
	if v != 0x12340005 {
		t.Errorf("GetTracker = %#08x, want 0x12340005", v)
	}
	if tag := v & 0xff; tag != 5 {
		t.Errorf("tracker tag = %d, want 5", tag)
	}
	if val := (v >> 16) & 0xffff; val != 0x1234 {
		t.Errorf("tracker value = %#04x, want 0x1234", val)
	}
}

func TestIoctlBadArguments(t *testing.T) {
	dev, _ := newTestDevice(t)

	tests := []struct {
		name string
		op   eve.Opcode
		arg  any
	}{
		{"put nil pointer", eve.OpPutDisplayList, (*eve.DisplayList)(nil)},
		{"put wrong type", eve.OpPutDisplayList, "not a list"},
		{"result nil pointer", eve.OpGetResult32, (*eve.Result32)(nil)},
		{"result wrong type", eve.OpGetResult32, 42},
		{"tracker nil pointer", eve.OpGetTracker, (*uint32)(nil)},
		{"tracker wrong type", eve.OpGetTracker, &struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := dev.Ioctl(tt.op, tt.arg); !errors.Is(err, eve.ErrInvalidArgument) {
				t.Errorf("Ioctl: err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestIoctlUnsupportedOp(t *testing.T) {
	dev, _ := newTestDevice(t)

	if err := dev.Ioctl(eve.Opcode(99), nil); !errors.Is(err, eve.ErrUnsupportedOp) {
		t.Errorf("Ioctl(99): err = %v, want ErrUnsupportedOp", err)
	}
}

func TestIoctlAfterDestroy(t *testing.T) {
	dev, _ := newTestDevice(t)
	_ = dev.Unlink()

	err := dev.Ioctl(eve.OpPutDisplayList, &eve.DisplayList{Data: []byte{0, 0, 0, 0}})
	if !errors.Is(err, eve.ErrDestroyed) {
		t.Errorf("Ioctl after destroy: err = %v, want ErrDestroyed", err)
	}
}

func TestBusFaultCountsError(t *testing.T) {
	dev, sim := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	sim.FailOn(evesim.OpWriteBlock, errors.New("bus fault"))

	if err := h.PutDisplayList(make([]byte, 8)); err == nil {
		t.Fatal("PutDisplayList should propagate the bus fault")
	}

	stats := dev.GetStats()
	if stats.BusErrors != 1 {
		t.Errorf("BusErrors = %d, want 1", stats.BusErrors)
	}
	if stats.BusWrites != 0 {
		t.Errorf("BusWrites = %d, want 0 after fault", stats.BusWrites)
	}
}

func TestHandleWrite(t *testing.T) {
	dev, sim := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	list := []byte{0x07, 0x00, 0x00, 0x26, 0x00, 0x00, 0x00, 0x00}
	n, err := h.Write(list)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(list) {
		t.Errorf("Write = %d bytes, want %d", n, len(list))
	}
	if got := sim.PeekBlock(eve.RAMDL, len(list)); !bytes.Equal(got, list) {
		t.Errorf("display-list RAM = %x, want %x", got, list)
	}

	// Writes with an illegal length report zero bytes written.
	if n, err := h.Write(make([]byte, 3)); err == nil || n != 0 {
		t.Errorf("Write(3 bytes) = (%d, %v), want (0, error)", n, err)
	}
}

func TestConcurrentWritesStayContiguous(t *testing.T) {
	dev, sim := newTestDevice(t)

	// Each writer uploads a list filled with its own byte value. The
	// device lock serialises the block writes, so whatever list wins,
	// display-list RAM must hold one list in full, never a mix.
	const writers = 8
	const listLen = 64

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(fill byte) {
			defer wg.Done()
			h, err := dev.Open()
			if err != nil {
				t.Errorf("Open: %v", err)
				return
			}
			defer h.Close()

			data := bytes.Repeat([]byte{fill}, listLen)
			for i := 0; i < 10; i++ {
				if err := h.PutDisplayList(data); err != nil {
					t.Errorf("PutDisplayList: %v", err)
					return
				}
			}
		}(byte(w + 1))
	}
	wg.Wait()

	got := sim.PeekBlock(eve.RAMDL, listLen)
	for i, b := range got {
		if b != got[0] {
			t.Fatalf("display-list RAM interleaved: byte %d = %#02x, byte 0 = %#02x", i, b, got[0])
		}
	}
	if got[0] == 0 || got[0] > writers {
		t.Errorf("display-list RAM holds %#02x, not a writer's fill byte", got[0])
	}
}

func TestHandleRead(t *testing.T) {
	dev, _ := newTestDevice(t)
	h, _ := dev.Open()
	defer h.Close()

	n, err := h.Read(make([]byte, 16))
	if n != 0 || err != io.EOF {
		t.Errorf("Read = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestHandleAfterClose(t *testing.T) {
	dev, _ := newTestDevice(t)
	h, _ := dev.Open()
	_ = h.Close()

	if _, err := h.Write(make([]byte, 4)); !errors.Is(err, eve.ErrDestroyed) {
		t.Errorf("Write after close: err = %v, want ErrDestroyed", err)
	}
	if _, err := h.GetTracker(); !errors.Is(err, eve.ErrDestroyed) {
		t.Errorf("GetTracker after close: err = %v, want ErrDestroyed", err)
	}

	// The device itself stays usable through other handles.
	h2, err := dev.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h2.Close()
	if err := h2.PutDisplayList(make([]byte, 4)); err != nil {
		t.Errorf("PutDisplayList on fresh handle: %v", err)
	}
}
