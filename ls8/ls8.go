// Package ls8 provides an implementation of the LS-8 CPU, called Machine,
// that can be used to execute LS-8 machine code.
package ls8

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Flags register bits. Exactly one of the comparison bits is set by CMP.
const (
	FlagEqual     = 0x01
	FlagGreater   = 0x02
	FlagLess      = 0x04
	FlagIntEnable = 0x40
)

// MemSize is the number of addressable memory cells.
const MemSize = 256

// Machine is an implementation of an LS-8 CPU.
type Machine struct {
	Mem [MemSize]byte
	Reg [8]byte
	PC  int
	SP  int
	FL  byte

	// Out receives the bytes written by PRN and PRA.
	Out io.Writer

	stopped int32

	mu      sync.Mutex
	pending byte
	key     byte
	hasKey  bool
}

// New returns an LS-8 CPU with the given program loaded at address zero.
// The stack pointer starts at 0xf3 and grows down; it is not aliased to
// any general register.
func New(prog []byte) *Machine {
	m := &Machine{SP: spStart, FL: 0xc0, Out: os.Stdout}
	copy(m.Mem[:], prog)
	return m
}

// ErrHLT is returned by Exec when the program executes HLT. It is the only
// way a program terminates itself; an unrecognized opcode stops execution
// but is reported as an UnknownOpError instead.
var ErrHLT = errors.New("HLT")

// ErrStopped is returned by Run after Stop is called.
var ErrStopped = errors.New("stopped")

// UnknownOpError is returned by Exec when the byte at PC matches no opcode.
type UnknownOpError struct {
	Addr int
	Op   byte
}

func (e UnknownOpError) Error() string {
	return fmt.Sprintf("instruction 0x%02x at %02x not recognized", e.Op, e.Addr)
}

// Exec delivers any pending interrupt and then executes the instruction at
// m.PC. It returns ErrHLT for HLT, an UnknownOpError for an unrecognized
// opcode, and a HaltError if execution faults.
func (m *Machine) Exec() (err error) {
	var (
		op     Op
		opAddr = m.PC
	)
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(HaltCode); ok {
				err = HaltError{
					Addr:     opAddr,
					Op:       op,
					HaltCode: code,
				}
			} else {
				panic(e)
			}
		}
	}()

	m.service()

	opAddr = m.PC
	op = Op(m.read(m.PC))

	switch op {
	case NOP:
		m.PC++
	case HLT:
		return ErrHLT
	case LDI:
		r, v := m.read(m.PC+1), m.read(m.PC+2)
		m.setReg(r, v)
		m.PC += 3
	case LD:
		a, b := m.read(m.PC+1), m.read(m.PC+2)
		m.setReg(a, m.read(int(m.reg(b))))
		m.PC += 3
	case ST:
		a, b := m.read(m.PC+1), m.read(m.PC+2)
		m.write(int(m.reg(a)), m.reg(b))
		m.PC += 3
	case PUSH:
		m.push(m.reg(m.read(m.PC + 1)))
		m.PC += 2
	case POP:
		m.setReg(m.read(m.PC+1), m.pop())
		m.PC += 2
	case PRN:
		fmt.Fprintf(m.Out, "%d\n", m.reg(m.read(m.PC+1)))
		m.PC += 2
	case PRA:
		m.Out.Write([]byte{m.reg(m.read(m.PC + 1))})
		m.PC += 2
	case CALL:
		// Unlike PUSH, CALL decrements SP before writing.
		r := m.read(m.PC + 1)
		m.SP--
		m.write(m.SP, byte(m.PC+2))
		m.PC = int(m.reg(r))
	case RET:
		m.PC = int(m.read(m.SP))
		m.SP++
	case JMP:
		m.PC = int(m.reg(m.read(m.PC + 1)))
	case JEQ:
		m.jumpIf(m.FL&FlagEqual != 0)
	case JNE:
		m.jumpIf(m.FL&FlagEqual == 0)
	case JGT:
		m.jumpIf(m.FL&FlagGreater != 0)
	case JLT:
		m.jumpIf(m.FL&FlagLess != 0)
	case JLE:
		m.jumpIf(m.FL&(FlagLess|FlagEqual) != 0)
	case JGE:
		m.jumpIf(m.FL&(FlagGreater|FlagEqual) != 0)
	case INT:
		n := m.reg(m.read(m.PC + 1))
		if n > 7 {
			panic(OutOfRange)
		}
		m.Reg[6] |= 1 << n
		m.PC += 2
	case IRET:
		m.iret()
	case ADD, SUB, MUL, DIV, MOD, CMP, AND, OR, XOR, SHL, SHR:
		a, b := m.read(m.PC+1), m.read(m.PC+2)
		m.alu(op, a, b)
		m.PC += 3
	case INC, DEC, NOT:
		m.alu(op, m.read(m.PC+1), 0)
		m.PC += 2
	default:
		return UnknownOpError{Addr: opAddr, Op: byte(op)}
	}

	return nil
}

func (m *Machine) jumpIf(cond bool) {
	if cond {
		m.PC = int(m.reg(m.read(m.PC + 1)))
	} else {
		m.PC += 2
	}
}

// Run executes instructions until the program halts, execution faults, or
// Stop is called. It calls tracef with the machine trace before each
// instruction; pass Nopf to discard it. HLT is a normal termination and
// returns a nil error.
func (m *Machine) Run(tracef func(format string, args ...any)) error {
	for {
		if atomic.LoadInt32(&m.stopped) != 0 {
			return ErrStopped
		}
		tracef("%s", m.Trace())
		if err := m.Exec(); err != nil {
			if err == ErrHLT {
				return nil
			}
			return err
		}
	}
}

// Nopf is a no-op tracef function.
func Nopf(string, ...any) {}

// Stop makes Run return ErrStopped before executing another instruction.
// It may be called from any goroutine.
func (m *Machine) Stop() { atomic.StoreInt32(&m.stopped, 1) }

// read returns the byte at the given memory address.
func (m *Machine) read(addr int) byte {
	if addr < 0 || addr >= MemSize {
		panic(OutOfRange)
	}
	return m.Mem[addr]
}

// write stores v at the given memory address.
func (m *Machine) write(addr int, v byte) {
	if addr < 0 || addr >= MemSize {
		panic(OutOfRange)
	}
	m.Mem[addr] = v
}

func (m *Machine) reg(i byte) byte {
	if i > 7 {
		panic(BadRegister)
	}
	return m.Reg[i]
}

func (m *Machine) setReg(i, v byte) {
	if i > 7 {
		panic(BadRegister)
	}
	m.Reg[i] = v
}

// IM returns the interrupt mask, an alias for R5.
func (m *Machine) IM() byte { return m.Reg[5] }

// SetIM sets the interrupt mask.
func (m *Machine) SetIM(v byte) { m.Reg[5] = v }

// IS returns the interrupt status, an alias for R6.
func (m *Machine) IS() byte { return m.Reg[6] }

// SetIS sets the interrupt status.
func (m *Machine) SetIS(v byte) { m.Reg[6] = v }

// Equal reports whether the last CMP found its operands equal.
func (m *Machine) Equal() bool { return m.FL&FlagEqual != 0 }

// GreaterThan reports whether the last CMP found its first operand greater.
func (m *Machine) GreaterThan() bool { return m.FL&FlagGreater != 0 }

// LessThan reports whether the last CMP found its first operand lesser.
func (m *Machine) LessThan() bool { return m.FL&FlagLess != 0 }

// InterruptsEnabled reports whether flags bit 6 is set.
func (m *Machine) InterruptsEnabled() bool { return m.FL&FlagIntEnable != 0 }

// Trace returns the PC, the next three memory bytes, and the eight
// registers, in hexadecimal.
func (m *Machine) Trace() string {
	s := fmt.Sprintf("%02X | %02X %02X %02X |",
		m.PC,
		m.Mem[m.PC&0xff],
		m.Mem[(m.PC+1)&0xff],
		m.Mem[(m.PC+2)&0xff])
	for _, r := range m.Reg {
		s += fmt.Sprintf(" %02X", r)
	}
	return s
}

// HaltError is returned by Exec if execution faults.
type HaltError struct {
	HaltCode
	Op   Op
	Addr int
}

func (e HaltError) Error() string {
	return fmt.Sprintf("%s executing %s at %02x", e.HaltCode, e.Op, e.Addr)
}

// HaltCode signifies the type of condition that faulted execution.
type HaltCode byte

const (
	OutOfRange   HaltCode = 0x00
	BadRegister  HaltCode = 0x01
	DivideByZero HaltCode = 0x02
	BadALUOp     HaltCode = 0x03
)

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		OutOfRange:   "address out of range",
		BadRegister:  "register out of range",
		DivideByZero: "division by zero",
		BadALUOp:     "unsupported ALU operation",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%02x)", byte(c))
}
