package collab

import (
	"github.com/ATSOTECK/pyhost/internal/pytype"
	"github.com/ATSOTECK/pyhost/internal/runtime"
)

// BytecodeEvaluator is an alias of pytype.BytecodeEvaluator: VMEvaluator
// must satisfy that interface exactly for TypeFactory.SetBytecodeEvaluator
// to accept it. pytype.BytecodeEvaluator takes code as `any` rather than
// *runtime.CodeObject, since pytype cannot import internal/runtime — the
// core's TypeSpec.PythonMethod stages whatever value the host compiler
// produced, opaque to the core, and VMEvaluator.Eval type-asserts it back.
type BytecodeEvaluator = pytype.BytecodeEvaluator

// VMEvaluator adapts a single internal/runtime.VM into a BytecodeEvaluator,
// reusing the host interpreter's own frame/opcode dispatch machinery
// (internal/runtime/vm.go's Execute family) rather than reimplementing
// bytecode interpretation inside the type-system core.
type VMEvaluator struct {
	vm *runtime.VM
}

// NewVMEvaluator wraps vm as a BytecodeEvaluator.
func NewVMEvaluator(vm *runtime.VM) *VMEvaluator {
	return &VMEvaluator{vm: vm}
}

// Eval implements BytecodeEvaluator by delegating to the host VM's
// namespace-scoped execution entry point. code must be a
// *runtime.CodeObject, the only kind of code object TypeSpec.PythonMethod
// is ever staged with in this codebase.
func (e *VMEvaluator) Eval(code any, globals, locals map[string]any) (any, error) {
	co, ok := code.(*runtime.CodeObject)
	if !ok {
		return nil, &pytype.InternalError{Message: "VMEvaluator.Eval: code is not a *runtime.CodeObject"}
	}
	runtimeGlobals := toRuntimeValues(globals)
	runtimeLocals := toRuntimeValues(locals)
	if err := e.vm.ExecuteInNamespace(co, runtimeGlobals, runtimeLocals); err != nil {
		return nil, err
	}
	result, ok := runtimeLocals["__result__"]
	if !ok {
		return nil, nil
	}
	return result, nil
}

func toRuntimeValues(m map[string]any) map[string]runtime.Value {
	out := make(map[string]runtime.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
