package jit

// Optimize runs every pass over prog in place, the flat-IR counterpart of
// the teacher's per-function Optimize: constant-fold, then eliminate dead
// code, then eliminate common subexpressions.
func Optimize(prog *Program) {
	ConstantFold(prog)
	DeadCodeEliminate(prog)
	CommonSubexprEliminate(prog)
}

// ConstantFold evaluates integer arithmetic over two constant operands at
// compile time, replacing the instruction with an equivalent OpLoadConst.
func ConstantFold(prog *Program) {
	consts := make(map[int]int64)
	for _, inst := range prog.Instructions {
		if inst.Op == OpLoadConst {
			if n, ok := asInt64(inst.Const); ok {
				consts[inst.Result.ID] = n
			}
			continue
		}
		if !inst.Op.isArithmetic() || len(inst.Operands) != 2 {
			continue
		}
		lhs, lok := consts[inst.Operands[0].ID]
		rhs, rok := consts[inst.Operands[1].ID]
		if !lok || !rok {
			continue
		}
		folded, ok := foldArith(inst.Op, lhs, rhs)
		if !ok {
			continue
		}
		inst.Op = OpLoadConst
		inst.Const = folded
		inst.Operands = nil
		consts[inst.Result.ID] = folded
	}
}

func asInt64(lit interface{}) (int64, bool) {
	switch v := lit.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func foldArith(op Op, lhs, rhs int64) (int64, bool) {
	switch op {
	case OpAdd:
		return lhs + rhs, true
	case OpSub:
		return lhs - rhs, true
	case OpMul:
		return lhs * rhs, true
	case OpDiv:
		if rhs == 0 {
			return 0, false
		}
		return lhs / rhs, true
	case OpMod:
		if rhs == 0 {
			return 0, false
		}
		return lhs % rhs, true
	default:
		return 0, false
	}
}

// hasSideEffects reports whether an instruction must be kept even if its
// result is never read — helper calls and safepoints may observably affect
// the world, and the final return is the program's only exit.
func hasSideEffects(op Op) bool {
	switch op {
	case OpCallHelper, OpSafepoint, OpReturn:
		return true
	}
	return false
}

// DeadCodeEliminate removes instructions whose result is never used and
// which have no side effect, iterating to a fixed point since removing one
// dead instruction can make an earlier one dead too.
func DeadCodeEliminate(prog *Program) {
	changed := true
	for changed {
		changed = false
		uses := make(map[int]int)
		for _, inst := range prog.Instructions {
			for _, op := range inst.Operands {
				uses[op.ID]++
			}
		}
		alive := prog.Instructions[:0]
		for _, inst := range prog.Instructions {
			if uses[inst.Result.ID] > 0 || hasSideEffects(inst.Op) {
				alive = append(alive, inst)
			} else {
				changed = true
			}
		}
		prog.Instructions = alive
	}
}

// CommonSubexprEliminate replaces a repeated arithmetic/comparison
// computation with a reference to its first occurrence.
func CommonSubexprEliminate(prog *Program) {
	type key struct {
		op       Op
		op1, op2 int
	}
	available := make(map[key]Value)
	for i, inst := range prog.Instructions {
		if hasSideEffects(inst.Op) || len(inst.Operands) != 2 {
			continue
		}
		k := key{op: inst.Op, op1: inst.Operands[0].ID, op2: inst.Operands[1].ID}
		if existing, ok := available[k]; ok {
			prog.Instructions[i] = &Instruction{Op: OpMove, Result: inst.Result, Operands: []Value{existing}}
			continue
		}
		available[k] = inst.Result
	}
}
