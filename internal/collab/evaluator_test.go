package collab

import (
	"testing"

	"github.com/ATSOTECK/pyhost/internal/compiler"
	"github.com/ATSOTECK/pyhost/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMEvaluatorEvalReturnsResultFromNamespace(t *testing.T) {
	vm := runtime.NewVM()
	code, errs := compiler.CompileSource("__result__ = x + 1", "<collab-test>")
	require.Empty(t, errs)

	ev := NewVMEvaluator(vm)
	result, err := ev.Eval(code, map[string]any{}, map[string]any{"x": &runtime.PyInt{Value: 41}})
	require.NoError(t, err)

	pyInt, ok := result.(*runtime.PyInt)
	require.True(t, ok)
	assert.Equal(t, int64(42), pyInt.Value)
}

func TestVMEvaluatorEvalWithNoResultVariable(t *testing.T) {
	vm := runtime.NewVM()
	code, errs := compiler.CompileSource("y = 1", "<collab-test>")
	require.Empty(t, errs)

	ev := NewVMEvaluator(vm)
	result, err := ev.Eval(code, map[string]any{}, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, result)
}
