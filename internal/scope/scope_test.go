package scope_test

import (
	"testing"

	"github.com/jordyorel/orus-lang-sub001/internal/scope"
	"github.com/stretchr/testify/require"
)

func TestPushPop_TracksDepth(t *testing.T) {
	s := scope.New()
	s.PushLexical()
	s.PushLoop()
	require.Equal(t, 2, s.Depth())
	require.Equal(t, 1, s.LoopDepth())

	s.Pop()
	require.Equal(t, 1, s.Depth())
	require.Equal(t, 0, s.LoopDepth())
}

func TestPop_OnEmptyIsNoOpWithDiagnostic(t *testing.T) {
	s := scope.New()
	require.Nil(t, s.Pop())
	require.Equal(t, 1, s.PopOnEmptyCount())
}

func TestLoopFrame_OffsetsInitialisedToMinusOne(t *testing.T) {
	s := scope.New()
	f := s.PushLoop()
	require.Equal(t, -1, f.StartOffset)
	require.Equal(t, -1, f.ContinueOffset)
	require.Equal(t, -1, f.EndOffset)
}

func TestCurrentLoop_SkipsLexicalFrames(t *testing.T) {
	s := scope.New()
	s.PushLoop()
	s.PushLexical()
	loop := s.CurrentLoop()
	require.NotNil(t, loop)
	require.Equal(t, scope.KindLoop, loop.Kind)
}

func TestBreakContinuePatches_Accumulate(t *testing.T) {
	s := scope.New()
	f := s.PushLoop()
	f.BreakPatches = append(f.BreakPatches, 1, 2)
	f.ContinuePatches = append(f.ContinuePatches, 3)
	require.Len(t, f.BreakPatches, 2)
	require.Len(t, f.ContinuePatches, 1)
}
