package module_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/module"
	"github.com/stretchr/testify/require"
)

func TestAliasResolution_MatchesCanonicalScenario(t *testing.T) {
	m := module.New()
	mod, err := m.LoadModule("intrinsics/math")
	require.NoError(t, err)
	mod.DeclareExport(&module.Export{
		Name:            "sin",
		Kind:            module.ExportFunction,
		RegisterID:      5,
		IntrinsicSymbol: "__orus_sin",
		FunctionIndex:   0,
	})

	require.NoError(t, m.AliasModule("intrinsics/math", "std/math"))

	canonical, err := m.ResolveExport("intrinsics/math", "sin")
	require.NoError(t, err)
	aliased, err := m.ResolveExport("std/math", "sin")
	require.NoError(t, err)
	require.Equal(t, canonical.RegisterID, aliased.RegisterID)
	require.Equal(t, canonical.Kind, aliased.Kind)
}

func TestAliasModule_DuplicateRegistrationFails(t *testing.T) {
	m := module.New()
	_, err := m.LoadModule("intrinsics/math")
	require.NoError(t, err)
	require.NoError(t, m.AliasModule("intrinsics/math", "std/math"))
	require.Error(t, m.AliasModule("intrinsics/math", "std/math"))
}

func TestFindModule_AliasAndCanonicalReturnSamePointer(t *testing.T) {
	m := module.New()
	mod, err := m.LoadModule("intrinsics/math")
	require.NoError(t, err)
	require.NoError(t, m.AliasModule("intrinsics/math", "std/math"))

	byCanonical, ok := m.FindModule("intrinsics/math")
	require.True(t, ok)
	byAlias, ok := m.FindModule("std/math")
	require.True(t, ok)

	require.Same(t, mod, byCanonical)
	require.Same(t, byCanonical, byAlias)
}

func TestAliasModule_FailsWhenCanonicalMissing(t *testing.T) {
	m := module.New()
	require.Error(t, m.AliasModule("does-not-exist", "alias"))
}
