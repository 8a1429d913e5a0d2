package eve_test

import (
	"testing"

	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/eve/evesim"
)

// opIndex returns the index of the first recorded op matching the
// predicate, or -1.
func opIndex(ops []evesim.Op, match func(evesim.Op) bool) int {
	for i, op := range ops {
		if match(op) {
			return i
		}
	}
	return -1
}

func TestBringupOrdering(t *testing.T) {
	_, sim := newTestDevice(t)
	ops := sim.Ops()

	if len(ops) == 0 {
		t.Fatal("bring-up recorded no bus operations")
	}

	// Power-down release is the very first bus interaction.
	if ops[0].Kind != evesim.OpPower || ops[0].Value != 0 {
		t.Errorf("ops[0] = %+v, want power release", ops[0])
	}

	clkext := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpHostCmd && op.Addr == uint32(eve.HostCmdClkExt)
	})
	active := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpHostCmd && op.Addr == uint32(eve.HostCmdActive)
	})
	if clkext == -1 || active == -1 {
		t.Fatal("CLKEXT/ACTIVE host commands not recorded")
	}
	if clkext > active {
		t.Errorf("CLKEXT at %d after ACTIVE at %d", clkext, active)
	}

	// Identity verification happens before any register is written.
	idRead := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpReadWord && op.Addr == eve.RegID
	})
	romRead := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpReadWord && op.Addr == eve.ROMChipID
	})
	firstWrite := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteByte || op.Kind == evesim.OpWriteHword ||
			op.Kind == evesim.OpWriteWord || op.Kind == evesim.OpWriteBlock
	})
	if idRead == -1 || romRead == -1 || firstWrite == -1 {
		t.Fatal("identity reads or register writes not recorded")
	}
	if idRead > firstWrite || romRead > firstWrite {
		t.Errorf("identity reads (%d, %d) after first register write (%d)", idRead, romRead, firstWrite)
	}

	// Pixel clock is disabled before the timing registers are touched
	// and re-enabled only after the bootstrap list has been swapped in.
	pclkOff := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteByte && op.Addr == eve.RegPClk && op.Value == 0
	})
	timing := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteHword && op.Addr == eve.RegHCycle
	})
	swap := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteByte && op.Addr == eve.RegDLSwap && op.Value == uint64(eve.DLSwapFrame)
	})
	pclkOn := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteByte && op.Addr == eve.RegPClk && op.Value != 0
	})
	if pclkOff == -1 || timing == -1 || swap == -1 || pclkOn == -1 {
		t.Fatal("pixel clock or timing operations not recorded")
	}
	if !(pclkOff < timing && timing < swap && swap < pclkOn) {
		t.Errorf("pixel clock sequence out of order: off=%d timing=%d swap=%d on=%d",
			pclkOff, timing, swap, pclkOn)
	}

	// The bootstrap list lands in display-list RAM before the swap.
	bootstrap := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpWriteWord && op.Addr == eve.RAMDL
	})
	if bootstrap == -1 || bootstrap > swap {
		t.Errorf("bootstrap list write at %d, swap at %d", bootstrap, swap)
	}
}

func TestBringupFrequencySwitching(t *testing.T) {
	_, sim := newTestDevice(t)
	ops := sim.Ops()

	var switches []evesim.Op
	for _, op := range ops {
		if op.Kind == evesim.OpFrequency {
			switches = append(switches, op)
		}
	}
	if len(switches) != 2 {
		t.Fatalf("recorded %d frequency switches, want 2", len(switches))
	}
	if switches[0].Value != uint64(eve.MaxInitHz) {
		t.Errorf("init frequency = %d, want %d", switches[0].Value, eve.MaxInitHz)
	}
	if switches[1].Value != uint64(eve.MaxOpHz) {
		t.Errorf("operating frequency = %d, want %d", switches[1].Value, eve.MaxOpHz)
	}

	// Everything between the two switches ran at the init frequency;
	// the operating clock is only safe on a configured device.
	opSwitch := opIndex(ops, func(op evesim.Op) bool {
		return op.Kind == evesim.OpFrequency && op.Value == uint64(eve.MaxOpHz)
	})
	for i, op := range ops[:opSwitch] {
		if op.Kind == evesim.OpPower || op.Kind == evesim.OpFrequency {
			continue
		}
		if op.Freq != eve.MaxInitHz {
			t.Errorf("ops[%d] = %+v ran at %d Hz, want %d", i, op, op.Freq, eve.MaxInitHz)
		}
	}

	// Nothing else follows the operating-frequency switch in bring-up.
	if opSwitch != len(ops)-1 {
		t.Errorf("operating frequency switch at %d, want last op (%d)", opSwitch, len(ops)-1)
	}
}

func TestBringupCustomFrequencies(t *testing.T) {
	sim := evesim.New(eve.VariantFT800)

	dev, err := eve.Register(sim, eve.Config{
		Variant: eve.VariantFT800,
		Profile: eve.ProfileWQVGA,
		InitHz:  8_000_000,
		OpHz:    24_000_000,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := dev.Frequency(); got != 24_000_000 {
		t.Errorf("Frequency() = %d, want 24000000", got)
	}
}

func TestBringupProgramsTiming(t *testing.T) {
	sim := evesim.New(eve.VariantFT800)

	_, err := eve.Register(sim, eve.Config{
		Variant: eve.VariantFT800,
		Profile: eve.ProfileQVGA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	checks := []struct {
		name string
		addr uint32
		want uint32
	}{
		{"hcycle", eve.RegHCycle, uint32(eve.ProfileQVGA.HCycle)},
		{"hsize", eve.RegHSize, uint32(eve.ProfileQVGA.HSize)},
		{"vcycle", eve.RegVCycle, uint32(eve.ProfileQVGA.VCycle)},
		{"vsize", eve.RegVSize, uint32(eve.ProfileQVGA.VSize)},
	}
	for _, c := range checks {
		if got := sim.PeekWord(c.addr) & 0xffff; got != c.want {
			t.Errorf("%s register = %d, want %d", c.name, got, c.want)
		}
	}

	if got := sim.PeekWord(eve.RegPClk) & 0xff; got != uint32(eve.ProfileQVGA.PClkDiv) {
		t.Errorf("pixel clock divisor = %d, want %d", got, eve.ProfileQVGA.PClkDiv)
	}
}
