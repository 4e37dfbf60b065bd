package ls8

import "fmt"

// Op represents an LS8 opcode.
type Op byte

// ALU instructions.
const (
	ADD Op = 0b10100000
	SUB Op = 0b10100001
	MUL Op = 0b10100010
	DIV Op = 0b10100011
	MOD Op = 0b10100100
	INC Op = 0b01100101
	DEC Op = 0b01100110
	CMP Op = 0b10100111
	AND Op = 0b10101000
	NOT Op = 0b01101001
	OR  Op = 0b10101010
	XOR Op = 0b10101011
	SHL Op = 0b10101100
	SHR Op = 0b10101101
)

// PC mutators.
const (
	CALL Op = 0b01010000
	RET  Op = 0b00010001
	INT  Op = 0b01010010
	IRET Op = 0b00010011
	JMP  Op = 0b01010100
	JEQ  Op = 0b01010101
	JNE  Op = 0b01010110
	JGT  Op = 0b01010111
	JLT  Op = 0b01011000
	JLE  Op = 0b01011001
	JGE  Op = 0b01011010
)

// Everything else.
const (
	NOP  Op = 0b00000000
	HLT  Op = 0b00000001
	LDI  Op = 0b10000010
	LD   Op = 0b10000011
	ST   Op = 0b10000100
	PUSH Op = 0b01000101
	POP  Op = 0b01000110
	PRN  Op = 0b01000111
	PRA  Op = 0b01001000
)

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("0x%02x", byte(o))
}

var opNames = map[Op]string{
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", MOD: "MOD",
	INC: "INC", DEC: "DEC", CMP: "CMP", AND: "AND", NOT: "NOT",
	OR: "OR", XOR: "XOR", SHL: "SHL", SHR: "SHR",
	CALL: "CALL", RET: "RET", INT: "INT", IRET: "IRET",
	JMP: "JMP", JEQ: "JEQ", JNE: "JNE", JGT: "JGT",
	JLT: "JLT", JLE: "JLE", JGE: "JGE",
	NOP: "NOP", HLT: "HLT", LDI: "LDI", LD: "LD", ST: "ST",
	PUSH: "PUSH", POP: "POP", PRN: "PRN", PRA: "PRA",
}
