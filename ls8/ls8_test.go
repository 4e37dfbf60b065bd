package ls8

import (
	"bytes"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	m := New([]byte{1, 2, 3})
	if m.PC != 0 {
		t.Errorf("PC is %x, want 0", m.PC)
	}
	if m.SP != 0xf3 {
		t.Errorf("SP is %x, want f3", m.SP)
	}
	if m.FL != 0xc0 {
		t.Errorf("FL is %02x, want c0", m.FL)
	}
	for i, w := range []byte{1, 2, 3, 0} {
		if g := m.Mem[i]; g != w {
			t.Errorf("Mem[%02x] == %02x, want %02x", i, g, w)
		}
	}
}

func TestExec(t *testing.T) {
	c := newExecTestCase
	for i, c := range []*execTestCase{
		c(ADD, 0, 1).reg(0, 5).reg(1, 10).want().reg(0, 15),
		c(ADD, 0, 1).reg(0, 200).reg(1, 100).want().reg(0, 44),
		c(ADD, 0, 0).reg(0, 3).want().reg(0, 6),
		c(SUB, 0, 1).reg(0, 3).reg(1, 2).want().reg(0, 1),
		c(SUB, 0, 1).reg(0, 2).reg(1, 3).want().reg(0, 255),
		c(MUL, 0, 1).reg(0, 2).reg(1, 3).want().reg(0, 6),
		c(MUL, 0, 1).reg(0, 100).reg(1, 100).want().reg(0, 16),
		c(DIV, 0, 1).reg(0, 7).reg(1, 2).want().reg(0, 3),
		c(MOD, 0, 1).reg(0, 7).reg(1, 3).want().reg(0, 1),
		c(INC, 0).reg(0, 41).want().reg(0, 42),
		c(INC, 0).reg(0, 0xff).want().reg(0, 0),
		c(DEC, 0).reg(0, 42).want().reg(0, 41),
		c(DEC, 0).reg(0, 0).want().reg(0, 0xff),
		c(NOT, 0).reg(0, 0x0f).want().reg(0, 0xf0),
		c(AND, 0, 1).reg(0, 0x99).reg(1, 0xb8).want().reg(0, 0x98),
		c(OR, 0, 1).reg(0, 0x36).reg(1, 0x63).want().reg(0, 0x77),
		c(XOR, 0, 1).reg(0, 0x31).reg(1, 0x13).want().reg(0, 0x22),
		c(SHL, 0, 1).reg(0, 0x81).reg(1, 1).want().reg(0, 0x02),
		c(SHR, 0, 1).reg(0, 0x81).reg(1, 1).want().reg(0, 0x40),

		c(CMP, 0, 1).reg(0, 7).reg(1, 7).want().fl(0xc0 | FlagEqual),
		c(CMP, 0, 1).reg(0, 8).reg(1, 7).want().fl(0xc0 | FlagGreater),
		c(CMP, 0, 1).reg(0, 6).reg(1, 7).want().fl(0xc0 | FlagLess),
		c(CMP, 0, 1).fl(0xc0 | FlagLess).want().fl(0xc0 | FlagEqual),

		c(LDI, 0, 5).want().reg(0, 5),
		c(LDI, 7, 0xff).want().reg(7, 0xff),
		c(LD, 0, 1).reg(1, 0x10).mem(0x10, 42).want().reg(0, 42),
		c(ST, 0, 1).reg(0, 0x10).reg(1, 42).want().mem(0x10, 42),

		c(PUSH, 0).reg(0, 42).want().mem(0xf3, 42).sp(0xf2),
		c(POP, 0).sp(0xf2).mem(0xf3, 42).want().reg(0, 42).sp(0xf3),

		c(CALL, 0).reg(0, 0x10).want().pc(0x10).sp(0xf2).mem(0xf2, 2),
		c(RET).sp(0xf2).mem(0xf2, 0x10).want().pc(0x10).sp(0xf3),

		c(JMP, 0).reg(0, 0x10).want().pc(0x10),
		c(JEQ, 0).reg(0, 0x10).fl(0xc0 | FlagEqual).want().pc(0x10),
		c(JEQ, 0).reg(0, 0x10).want().pc(2),
		c(JNE, 0).reg(0, 0x10).want().pc(0x10),
		c(JNE, 0).reg(0, 0x10).fl(0xc0 | FlagEqual).want().pc(2),
		c(JGT, 0).reg(0, 0x10).fl(0xc0 | FlagGreater).want().pc(0x10),
		c(JGT, 0).reg(0, 0x10).fl(0xc0 | FlagEqual).want().pc(2),
		c(JLT, 0).reg(0, 0x10).fl(0xc0 | FlagLess).want().pc(0x10),
		c(JLT, 0).reg(0, 0x10).fl(0xc0 | FlagGreater).want().pc(2),
		c(JLE, 0).reg(0, 0x10).fl(0xc0 | FlagLess).want().pc(0x10),
		c(JLE, 0).reg(0, 0x10).fl(0xc0 | FlagEqual).want().pc(0x10),
		c(JLE, 0).reg(0, 0x10).fl(0xc0 | FlagGreater).want().pc(2),
		c(JGE, 0).reg(0, 0x10).fl(0xc0 | FlagGreater).want().pc(0x10),
		c(JGE, 0).reg(0, 0x10).fl(0xc0 | FlagEqual).want().pc(0x10),
		c(JGE, 0).reg(0, 0x10).fl(0xc0 | FlagLess).want().pc(2),

		c(PRN, 0).reg(0, 15).want().out("15\n"),
		c(PRN, 0).reg(0, 0).want().out("0\n"),
		c(PRA, 0).reg(0, 'A').want().out("A"),

		c(INT, 0).reg(0, 3).want().reg(6, 0b1000),

		c(NOP).want(),
		c(HLT).want().pc(0).error(ErrHLT),

		c(0xff).want().pc(0).
			error(UnknownOpError{Addr: 0, Op: 0xff}),

		c(DIV, 0, 1).reg(0, 1).want().pc(0).
			error(HaltError{HaltCode: DivideByZero, Op: DIV, Addr: 0}),
		c(MOD, 0, 1).reg(0, 1).want().pc(0).
			error(HaltError{HaltCode: DivideByZero, Op: MOD, Addr: 0}),
		c(LDI, 9, 5).want().pc(0).
			error(HaltError{HaltCode: BadRegister, Op: LDI, Addr: 0}),
		c(PUSH, 8).want().pc(0).
			error(HaltError{HaltCode: BadRegister, Op: PUSH, Addr: 0}),
		c(INT, 0).reg(0, 9).want().pc(0).
			error(HaltError{HaltCode: OutOfRange, Op: INT, Addr: 0}),
		c(CALL, 0).sp(0).want().pc(0).sp(-1).
			error(HaltError{HaltCode: OutOfRange, Op: CALL, Addr: 0}),
		c(POP, 0).sp(0xff).want().pc(0).
			error(HaltError{HaltCode: OutOfRange, Op: POP, Addr: 0}),
	} {
		t.Run(fmt.Sprintf("%s_%d", Op(c.m.Mem[0]), i), func(t *testing.T) {
			if err := c.m.Exec(); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if g, w := c.m.Reg, c.w.Reg; g != w {
				t.Errorf("registers are %v, want %v", g, w)
			}
			if g, w := c.m.Mem, c.w.Mem; g != w {
				for i := 0; i < len(g); i++ {
					if g[i] != w[i] {
						t.Errorf("memory[%02x] = %02x, want %02x", i, g[i], w[i])
					}
				}
			}
			if g, w := c.m.PC, c.w.PC; g != w {
				t.Errorf("PC is %x, want %x", g, w)
			}
			if g, w := c.m.SP, c.w.SP; g != w {
				t.Errorf("SP is %x, want %x", g, w)
			}
			if g, w := c.m.FL, c.w.FL; g != w {
				t.Errorf("FL is %08b, want %08b", g, w)
			}
			if g, w := c.mOut.String(), c.wOut; g != w {
				t.Errorf("output is %q, want %q", g, w)
			}
		})
	}
}

type execTestCase struct {
	m, w *Machine
	err  error
	set  *Machine

	mOut *bytes.Buffer
	wOut string
}

func newExecTestCase(op Op, operands ...byte) *execTestCase {
	prog := append([]byte{byte(op)}, operands...)
	c := &execTestCase{m: New(prog), w: New(prog), mOut: &bytes.Buffer{}}
	c.m.Out = c.mOut
	c.w.PC = len(prog) // most instructions fall through
	c.set = c.m
	return c
}

// The setters below mutate both machines until want is called, because
// state that an instruction does not touch must be unchanged afterwards.

func (c *execTestCase) reg(i, v byte) *execTestCase {
	c.set.Reg[i] = v
	if c.set == c.m {
		c.w.Reg[i] = v
	}
	return c
}

func (c *execTestCase) mem(addr int, bytes ...byte) *execTestCase {
	copy(c.set.Mem[addr:], bytes)
	if c.set == c.m {
		copy(c.w.Mem[addr:], bytes)
	}
	return c
}

func (c *execTestCase) fl(v byte) *execTestCase {
	c.set.FL = v
	if c.set == c.m {
		c.w.FL = v
	}
	return c
}

func (c *execTestCase) sp(v int) *execTestCase {
	c.set.SP = v
	if c.set == c.m {
		c.w.SP = v
	}
	return c
}

func (c *execTestCase) pc(addr int) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) out(s string) *execTestCase {
	c.wOut = s
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

func TestRun(t *testing.T) {
	t.Run("add_prn_hlt", func(t *testing.T) {
		m, out := testMachine(
			byte(LDI), 0, 5,
			byte(LDI), 1, 10,
			byte(ADD), 0, 1,
			byte(PRN), 0,
			byte(HLT),
		)
		if err := m.Run(Nopf); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if g, w := out.String(), "15\n"; g != w {
			t.Errorf("output is %q, want %q", g, w)
		}
	})

	t.Run("unknown_opcode_stops_loop", func(t *testing.T) {
		m, _ := testMachine(
			byte(LDI), 0, 5,
			0xff,
		)
		err := m.Run(Nopf)
		uerr, ok := err.(UnknownOpError)
		if !ok {
			t.Fatalf("Run returned %v, want UnknownOpError", err)
		}
		if uerr.Op != 0xff || uerr.Addr != 3 {
			t.Errorf("got %+v, want Op 0xff at 3", uerr)
		}
		// The machine is stopped but intact.
		if g := m.Reg[0]; g != 5 {
			t.Errorf("R0 is %d, want 5", g)
		}
	})

	t.Run("push_pop_roundtrip", func(t *testing.T) {
		m, _ := testMachine(
			byte(LDI), 0, 42,
			byte(PUSH), 0,
			byte(POP), 1,
			byte(HLT),
		)
		if err := m.Run(Nopf); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if g := m.Reg[1]; g != 42 {
			t.Errorf("R1 is %d, want 42", g)
		}
		if g := m.SP; g != 0xf3 {
			t.Errorf("SP is %x, want f3", g)
		}
	})

	t.Run("call_ret", func(t *testing.T) {
		m, out := testMachine(
			byte(LDI), 0, 8, // 0: address of sub
			byte(CALL), 0, // 3
			byte(PRN), 0, // 5: return lands here
			byte(HLT),       // 7
			byte(LDI), 0, 9, // 8: sub
			byte(RET), // 11
		)
		if err := m.Run(Nopf); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if g, w := out.String(), "9\n"; g != w {
			t.Errorf("output is %q, want %q", g, w)
		}
		if g := m.SP; g != 0xf3 {
			t.Errorf("SP is %x, want f3", g)
		}
	})

	t.Run("cmp_jeq", func(t *testing.T) {
		m, out := testMachine(
			byte(LDI), 0, 7, // 0
			byte(LDI), 1, 7, // 3
			byte(CMP), 0, 1, // 6
			byte(LDI), 2, 15, // 9: jump target
			byte(JEQ), 2, // 12
			byte(HLT),     // 14: skipped
			byte(PRN), 0, // 15
			byte(HLT), // 17
		)
		if err := m.Run(Nopf); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if g, w := out.String(), "7\n"; g != w {
			t.Errorf("output is %q, want %q", g, w)
		}
	})

	t.Run("stop", func(t *testing.T) {
		m, _ := testMachine(byte(NOP))
		m.Stop()
		if err := m.Run(Nopf); err != ErrStopped {
			t.Fatalf("Run returned %v, want ErrStopped", err)
		}
	})
}

func testMachine(prog ...byte) (*Machine, *bytes.Buffer) {
	m := New(prog)
	out := &bytes.Buffer{}
	m.Out = out
	return m, out
}

func TestTrace(t *testing.T) {
	m, _ := testMachine(byte(LDI), 0, 5)
	m.Reg[7] = 0xab
	want := "00 | 82 00 05 | 00 00 00 00 00 00 00 AB"
	if g := m.Trace(); g != want {
		t.Errorf("Trace is %q, want %q", g, want)
	}
}
