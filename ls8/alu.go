package ls8

// alu performs the operation for op on registers a and b, storing the result
// in register a. CMP stores nothing and mutates only the flags register.
// All results are masked to 8 bits by the register width.
func (m *Machine) alu(op Op, a, b byte) {
	switch op {
	case ADD:
		m.setReg(a, m.reg(a)+m.reg(b))
	case SUB:
		m.setReg(a, m.reg(a)-m.reg(b))
	case MUL:
		m.setReg(a, m.reg(a)*m.reg(b))
	case DIV:
		if m.reg(b) == 0 {
			panic(DivideByZero)
		}
		m.setReg(a, m.reg(a)/m.reg(b))
	case MOD:
		if m.reg(b) == 0 {
			panic(DivideByZero)
		}
		m.setReg(a, m.reg(a)%m.reg(b))
	case INC:
		m.setReg(a, m.reg(a)+1)
	case DEC:
		m.setReg(a, m.reg(a)-1)
	case CMP:
		fl := m.FL &^ (FlagEqual | FlagGreater | FlagLess)
		switch va, vb := m.reg(a), m.reg(b); {
		case va == vb:
			fl |= FlagEqual
		case va > vb:
			fl |= FlagGreater
		default:
			fl |= FlagLess
		}
		m.FL = fl
	case AND:
		m.setReg(a, m.reg(a)&m.reg(b))
	case NOT:
		m.setReg(a, ^m.reg(a))
	case OR:
		m.setReg(a, m.reg(a)|m.reg(b))
	case XOR:
		m.setReg(a, m.reg(a)^m.reg(b))
	case SHL:
		m.setReg(a, m.reg(a)<<m.reg(b))
	case SHR:
		m.setReg(a, m.reg(a)>>m.reg(b))
	default:
		panic(BadALUOp)
	}
}
