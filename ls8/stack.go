package ls8

import (
	"fmt"
	"strings"
)

// The stack lives in main memory, growing down from spStart. SP points at
// the most recently pushed value, not the next free cell: push writes at SP
// and then decrements, so pop must read at SP+1 before incrementing.
const spStart = 0xf3

func (m *Machine) push(v byte) {
	m.write(m.SP, v)
	m.SP--
}

func (m *Machine) pop() byte {
	v := m.read(m.SP + 1)
	m.SP++
	return v
}

// StackString returns the live stack cells, bottom first.
func (m *Machine) StackString() string {
	var b strings.Builder
	b.WriteByte('(')
	for addr := spStart; addr > m.SP && addr >= 0; addr-- {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "%x", m.Mem[addr])
	}
	b.WriteByte(' ')
	b.WriteByte(')')
	return b.String()
}
