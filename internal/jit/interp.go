package jit

import "fmt"

// EntryPoint is a compiled loop body's callable form: it runs prog against
// the boxed inputs supplied by the VM and returns the value its OpReturn
// names. This is spec.md §4.8's "entry_point: native-callable" — here it is
// a Go closure rather than emitted machine code, matching the documented
// non-goal that only the IR-level parity contract, not a real code
// generator, is specified.
type EntryPoint func(inputs map[int]interface{}) (interface{}, error)

// Backend translates an optimized Program into an EntryPoint. Parity is
// computed purely from the IR (CollectParity), independent of which
// Backend produced the entry point, so swapping backends never changes it
// — the cross-architecture parity contract spec.md §4.8 and §8 require.
type Backend interface {
	Translate(prog *Program) (EntryPoint, error)
}

// InterpreterBackend walks a flat Program instruction by instruction. It is
// the only Backend this facade ships, grounded on the analyse/emit split
// tetratelabs-wazero draws between its interpreter and compiler engines:
// InterpreterBackend plays the role wazero's interpreter engine plays,
// while CollectParity plays the role of the shared "analyse IR" stage any
// future machine-code backend would also consume.
type InterpreterBackend struct{}

func (InterpreterBackend) Translate(prog *Program) (EntryPoint, error) {
	instructions := append([]*Instruction(nil), prog.Instructions...)
	return func(inputs map[int]interface{}) (interface{}, error) {
		values := make(map[int]interface{}, len(instructions)+len(inputs))
		for id, v := range inputs {
			values[id] = v
		}
		var result interface{}
		for _, inst := range instructions {
			v, err := evalInstruction(inst, values)
			if err != nil {
				return nil, err
			}
			values[inst.Result.ID] = v
			if inst.Op == OpReturn {
				result = v
			}
		}
		return result, nil
	}, nil
}

func evalInstruction(inst *Instruction, values map[int]interface{}) (interface{}, error) {
	switch inst.Op {
	case OpLoadConst:
		return inst.Const, nil
	case OpSafepoint:
		return nil, nil
	case OpReturn, OpMove, OpConvert:
		return operand(inst, values, 0)
	case OpCallHelper:
		return nil, fmt.Errorf("jit: helper %q has no interpreter binding", inst.HelperName)
	}
	lhs, err := operandInt(inst, values, 0)
	if err != nil {
		return nil, err
	}
	rhs, err := operandInt(inst, values, 1)
	if err != nil {
		return nil, err
	}
	switch inst.Op {
	case OpAdd:
		return lhs + rhs, nil
	case OpSub:
		return lhs - rhs, nil
	case OpMul:
		return lhs * rhs, nil
	case OpDiv:
		if rhs == 0 {
			return nil, fmt.Errorf("jit: division by zero")
		}
		return lhs / rhs, nil
	case OpMod:
		if rhs == 0 {
			return nil, fmt.Errorf("jit: division by zero")
		}
		return lhs % rhs, nil
	case OpEq:
		return lhs == rhs, nil
	case OpNeq:
		return lhs != rhs, nil
	case OpLt:
		return lhs < rhs, nil
	case OpLte:
		return lhs <= rhs, nil
	case OpGt:
		return lhs > rhs, nil
	case OpGte:
		return lhs >= rhs, nil
	default:
		return nil, fmt.Errorf("jit: unsupported opcode %v", inst.Op)
	}
}

func operand(inst *Instruction, values map[int]interface{}, i int) (interface{}, error) {
	if i >= len(inst.Operands) {
		return nil, fmt.Errorf("jit: %v missing operand %d", inst.Op, i)
	}
	v, ok := values[inst.Operands[i].ID]
	if !ok {
		return nil, fmt.Errorf("jit: %v references undefined value %s", inst.Op, inst.Operands[i])
	}
	return v, nil
}

func operandInt(inst *Instruction, values map[int]interface{}, i int) (int64, error) {
	v, err := operand(inst, values, i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("jit: %v operand %d is not integral (%T)", inst.Op, i, v)
	}
}
