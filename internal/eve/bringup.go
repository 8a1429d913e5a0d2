package eve

import (
	"fmt"
	"time"
)

// settleDelay is the minimum wait after releasing the power-down line
// before the coprocessor accepts host commands.
const settleDelay = 20 * time.Millisecond

// initialize runs the one-time hardware bring-up sequence. Caller
// holds mu. The ordering is load-bearing:
//
//   - identity checks precede all register programming, so a wrong or
//     absent chip aborts before anything is written;
//   - the pixel clock is disabled before the timing registers are
//     programmed and re-enabled only after the bootstrap display list
//     has been swapped in, so the panel never shows garbage;
//   - the bus stays at the init frequency until every register is
//     programmed, because the higher operating clock is only safe on a
//     configured device.
//
// No step retries; any failure is terminal for this bring-up attempt.
func (d *Device) initialize() error {
	t := d.transport

	// Release the power-down line and let the chip settle.
	if err := t.PowerDown(false); err != nil {
		return fmt.Errorf("releasing power-down: %w", err)
	}
	time.Sleep(settleDelay)

	// Bring-up runs at the conservative init frequency.
	if err := t.SetFrequency(d.cfg.InitHz); err != nil {
		return fmt.Errorf("setting init frequency: %w", err)
	}
	d.frequency = d.cfg.InitHz

	// Select the external crystal, then enable the core clock.
	if err := t.HostCommand(HostCmdClkExt); err != nil {
		return fmt.Errorf("host command CLKEXT: %w", err)
	}
	if err := t.HostCommand(HostCmdActive); err != nil {
		return fmt.Errorf("host command ACTIVE: %w", err)
	}

	// Verify the chip identity before touching any register.
	id, err := t.ReadWord(RegID)
	if err != nil {
		return fmt.Errorf("reading chip id: %w", err)
	}
	if id&chipIDMask != chipIDValue {
		return fmt.Errorf("%w: chip id %#02x", ErrDeviceAbsent, id&chipIDMask)
	}

	rom, err := t.ReadWord(ROMChipID)
	if err != nil {
		return fmt.Errorf("reading rom chip id: %w", err)
	}
	if want := d.cfg.Variant.romID(); rom != want {
		return fmt.Errorf("%w: rom chip id %#08x, want %#08x", ErrDeviceAbsent, rom, want)
	}

	// Disable the pixel clock while the timing registers are programmed.
	if err := t.WriteByte(RegPClk, 0); err != nil {
		return fmt.Errorf("disabling pixel clock: %w", err)
	}
	if err := d.programTiming(); err != nil {
		return err
	}

	// Write and immediately swap in the bootstrap display list so the
	// first visible frame is a clean black screen.
	if err := d.writeBootstrapList(); err != nil {
		return err
	}

	// Drive the panel-enable GPIO bit: output direction, then assert.
	if err := d.enablePanel(); err != nil {
		return err
	}

	// Re-enable the pixel clock; video output begins from this write.
	if err := t.WriteByte(RegPClk, d.cfg.Profile.PClkDiv); err != nil {
		return fmt.Errorf("enabling pixel clock: %w", err)
	}

	// The device is configured; switch to the operating frequency.
	if err := t.SetFrequency(d.cfg.OpHz); err != nil {
		return fmt.Errorf("setting operating frequency: %w", err)
	}
	d.frequency = d.cfg.OpHz

	return nil
}

// programTiming loads the horizontal/vertical timing register set from
// the active display profile. The pixel clock must be disabled.
func (d *Device) programTiming() error {
	p := d.cfg.Profile
	t := d.transport

	hwords := []struct {
		addr uint32
		val  uint16
	}{
		{RegHCycle, p.HCycle},
		{RegHOffset, p.HOffset},
		{RegHSync0, p.HSync0},
		{RegHSync1, p.HSync1},
		{RegVCycle, p.VCycle},
		{RegVOffset, p.VOffset},
		{RegVSync0, p.VSync0},
		{RegVSync1, p.VSync1},
	}
	for _, r := range hwords {
		if err := t.WriteHword(r.addr, r.val); err != nil {
			return fmt.Errorf("programming timing register %#06x: %w", r.addr, err)
		}
	}

	bytes := []struct {
		addr uint32
		val  uint8
	}{
		{RegSwizzle, p.Swizzle},
		{RegPClkPol, p.PClkPol},
		{RegCSpread, p.CSpread},
	}
	for _, r := range bytes {
		if err := t.WriteByte(r.addr, r.val); err != nil {
			return fmt.Errorf("programming timing register %#06x: %w", r.addr, err)
		}
	}

	if err := t.WriteHword(RegHSize, p.HSize); err != nil {
		return fmt.Errorf("programming image width: %w", err)
	}
	if err := t.WriteHword(RegVSize, p.VSize); err != nil {
		return fmt.Errorf("programming image height: %w", err)
	}
	return nil
}

// writeBootstrapList writes the minimal clear-screen display list and
// triggers an immediate swap (no double-buffer delay for this first
// list).
func (d *Device) writeBootstrapList() error {
	t := d.transport

	words := []uint32{
		dlClearColorRGB(0, 0, 0),
		dlClear(true, true, true),
		dlDisplay(),
	}
	for i, w := range words {
		if err := t.WriteWord(RAMDL+uint32(i*4), w); err != nil {
			return fmt.Errorf("writing bootstrap display list: %w", err)
		}
	}

	if err := t.WriteByte(RegDLSwap, DLSwapFrame); err != nil {
		return fmt.Errorf("triggering display-list swap: %w", err)
	}
	return nil
}

// enablePanel configures the panel-enable GPIO bit to output direction
// and asserts it.
func (d *Device) enablePanel() error {
	t := d.transport

	dir, err := t.ReadByte(RegGPIODir)
	if err != nil {
		return fmt.Errorf("reading gpio direction: %w", err)
	}
	if err := t.WriteByte(RegGPIODir, dir|panelEnableBit); err != nil {
		return fmt.Errorf("setting gpio direction: %w", err)
	}

	val, err := t.ReadByte(RegGPIO)
	if err != nil {
		return fmt.Errorf("reading gpio: %w", err)
	}
	if err := t.WriteByte(RegGPIO, val|panelEnableBit); err != nil {
		return fmt.Errorf("asserting panel enable: %w", err)
	}
	return nil
}
