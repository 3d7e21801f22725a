package main

import (
	"fmt"

	"github.com/jordyorel/orus-lang-sub001/internal/bytecode"
)

// Disassemble renders chunk's instruction stream as one line per
// instruction, decoding variable-width CALL_R/MAKE_ENUM the same way
// internal/vm's dispatch loop does.
func Disassemble(chunk *bytecode.Chunk) []string {
	code := chunk.Code()
	var lines []string
	ip := 0
	for ip < len(code) {
		op := bytecode.Opcode(code[ip])
		width := op.Width()
		switch {
		case op == bytecode.OpCallR:
			argc := int(code[ip+3])
			width = 5 + argc
		case op == bytecode.OpMakeEnum:
			payloadArgc := int(code[ip+7])
			width = 8 + payloadArgc
		case width < 0:
			lines = append(lines, fmt.Sprintf("%04d  %s  <unknown width>", ip, op))
			ip++
			continue
		}
		end := ip + width
		if end > len(code) {
			end = len(code)
		}
		operands := code[ip+1 : end]
		lines = append(lines, fmt.Sprintf("%04d  %-20s %v", ip, op, operands))
		ip += width
	}
	return lines
}
