package ls8

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseProgram reads an LS-8 program image: one instruction byte per line,
// written as binary digits. A '#' starts a comment that runs to the end of
// the line, and lines that are blank after comment stripping are skipped.
func ParseProgram(r io.Reader) ([]byte, error) {
	var prog []byte
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line, _, _ := strings.Cut(sc.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 2, 8)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a binary byte", n, line)
		}
		if len(prog) == MemSize {
			return nil, fmt.Errorf("line %d: program exceeds %d bytes", n, MemSize)
		}
		prog = append(prog, byte(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// LoadFile parses the program image in the named file.
func LoadFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	prog, err := ParseProgram(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return prog, nil
}
