package ls8

import "math/bits"

// Interrupt sources. The interrupt mask (R5) and status (R6) registers use
// one bit per source; the handler address for source n is read from the
// vector table at 0xf8+n.
const (
	TimerInterrupt    = 0
	KeyboardInterrupt = 1

	keyAddr    = 0xf4
	vectorBase = 0xf8
)

// Raise marks interrupt source n pending. It may be called from any
// goroutine; the interrupt is delivered before a subsequent instruction.
func (m *Machine) Raise(n int) {
	m.mu.Lock()
	m.pending |= 1 << (n & 7)
	m.mu.Unlock()
}

// RaiseKey raises the keyboard interrupt and records the pressed key,
// which is stored at address 0xf4 when the interrupt is folded in.
func (m *Machine) RaiseKey(k byte) {
	m.mu.Lock()
	m.pending |= 1 << KeyboardInterrupt
	m.key, m.hasKey = k, true
	m.mu.Unlock()
}

// service folds raised interrupts into the status register and, if
// interrupts are enabled and an unmasked source is pending, transfers
// control to its handler. It runs once per fetch-execute iteration, so
// delivery is always at an instruction boundary.
func (m *Machine) service() {
	m.mu.Lock()
	pending, key, hasKey := m.pending, m.key, m.hasKey
	m.pending, m.hasKey = 0, false
	m.mu.Unlock()

	if hasKey {
		m.Mem[keyAddr] = key
	}
	m.Reg[6] |= pending

	if m.FL&FlagIntEnable == 0 {
		return
	}
	masked := m.Reg[5] & m.Reg[6]
	if masked == 0 {
		return
	}
	n := bits.TrailingZeros8(masked)

	// Clear the source, disable further interrupts, and save the frame
	// that iret restores: PC, flags, then R0 through R6.
	m.Reg[6] &^= 1 << n
	m.FL &^= FlagIntEnable
	m.push(byte(m.PC))
	m.push(m.FL)
	for i := 0; i < 7; i++ {
		m.push(m.Reg[i])
	}
	m.PC = int(m.read(vectorBase + n))
}

// iret restores the frame saved by service, in exact mirror order,
// and re-enables interrupts.
func (m *Machine) iret() {
	for i := 6; i >= 0; i-- {
		m.Reg[i] = m.pop()
	}
	m.FL = m.pop()
	m.PC = int(m.pop())
	m.FL |= FlagIntEnable
}
