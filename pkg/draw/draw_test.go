package draw

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-graphviz"
	"github.com/stretchr/testify/require"

	"forkskinny-go/pkg/forkcipher"
	"forkskinny-go/pkg/integral"
)

func testParams() integral.Params {
	return integral.Params{
		Fork:            forkcipher.Fork{Rounds: 14, ForkPoint: 7, Skip: 27},
		ActivePlaintext: []int{14},
		ActiveTweakey:   integral.ActiveTweakey{Index: 15, Words: 2},
		Targets:         []int{3, 15},
	}
}

func TestDOTHighlightsCells(t *testing.T) {
	dot := NewShape(testParams()).WithControl(5).DOT()

	require.True(t, strings.HasPrefix(dot, "digraph forkcheck {"))
	require.True(t, strings.HasSuffix(dot, "}\n"))
	require.Contains(t, dot, `<td bgcolor="#B0FFB0">14</td>`)
	require.Contains(t, dot, `<td bgcolor="#FFB0B0">3</td>`)
	require.Contains(t, dot, `<td bgcolor="#FFB0B0">15</td>`)
	require.Contains(t, dot, `<td bgcolor="#B0C8FF">5</td>`)
	require.Contains(t, dot, "R=14 Ri=7 R0=27")
	require.Contains(t, dot, "7 rounds, 27 tweakeys skipped")
	require.Contains(t, dot, "2^12 encryptions")

	// TK1 and TK2 carry the active cell, TK3 does not.
	require.Equal(t, 2, strings.Count(dot, `<td bgcolor="#FFD080">15</td>`))
}

func TestDOTWithoutControl(t *testing.T) {
	dot := NewShape(testParams()).DOT()
	require.Equal(t, 1, strings.Count(dot, `#B0C8FF`), "only the legend uses the control color")
}

func TestDOTParses(t *testing.T) {
	graph, err := graphviz.ParseBytes([]byte(NewShape(testParams()).DOT()))
	require.NoError(t, err)
	require.NoError(t, graph.Close())
}

func TestSVG(t *testing.T) {
	svg, err := NewShape(testParams()).WithControl(0).SVG(context.Background())
	require.NoError(t, err)
	require.Contains(t, string(svg), "<svg")
}

func TestCellLabel(t *testing.T) {
	require.Equal(t, "cell 6 (row 1, col 2)", CellLabel(6))
	require.Equal(t, "none", CellLabel(NoControl))
}
