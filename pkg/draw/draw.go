// Package draw renders the shape of a distinguisher as a graphviz graph:
// which plaintext and tweakey cells are swept, how the rounds are split
// around the fork and which ciphertext cells are summed.
package draw

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/goccy/go-graphviz"

	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/nibble"
	"forkskinny-go/pkg/tweakey"
)

const (
	colorActive  = "#B0FFB0"
	colorTweakey = "#FFD080"
	colorTarget  = "#FFB0B0"
	colorControl = "#B0C8FF"
	colorIdle    = "#FFFFFF"
)

const header = `digraph forkcheck {
    graph [fontname = "monospace" rankdir=LR bgcolor=transparent];
    node [fontname = "courier new" shape=plaintext];
    edge [fontname = "courier new"];
`

// NoControl marks a shape drawn before any control position was chosen.
const NoControl = -1

type Shape struct {
	Params  integral.Params
	Control int
}

func NewShape(p integral.Params) Shape {
	return Shape{Params: p, Control: NoControl}
}

// WithControl returns a copy highlighting control among the ciphertext cells.
func (s Shape) WithControl(control int) Shape {
	s.Control = control
	return s
}

// grid is a 4x4 HTML-like table, cell i at row i/4 and column i%4.
func grid(id, title string, color func(i int) string) string {
	result := fmt.Sprintf("\"%s\" [label=<<table border=\"0\" cellborder=\"1\" cellspacing=\"0\">", id)
	result = fmt.Sprintf("%s<tr><td colspan=\"4\"><b>%s</b></td></tr>", result, title)
	for row := 0; row < 4; row++ {
		result = fmt.Sprintf("%s<tr>", result)
		for col := 0; col < 4; col++ {
			i := 4*row + col
			result = fmt.Sprintf("%s<td bgcolor=\"%s\">%d</td>", result, color(i), i)
		}
		result = fmt.Sprintf("%s</tr>", result)
	}
	return fmt.Sprintf("%s</table>>]\n", result)
}

func (s Shape) plaintextNode() string {
	return grid("pt", "plaintext", func(i int) string {
		if slices.Contains(s.Params.ActivePlaintext, i) {
			return colorActive
		}
		return colorIdle
	})
}

func (s Shape) tweakeyNodes() string {
	var result string
	for w := 0; w < tweakey.Words; w++ {
		active := w < s.Params.ActiveTweakey.Words
		result += grid(fmt.Sprintf("tk%d", w+1), fmt.Sprintf("TK%d", w+1), func(i int) string {
			if active && i == s.Params.ActiveTweakey.Index {
				return colorTweakey
			}
			return colorIdle
		})
	}
	return result
}

func (s Shape) ciphertextNode() string {
	return grid("ct", "ciphertext", func(i int) string {
		switch {
		case slices.Contains(s.Params.Targets, i):
			return colorTarget
		case i == s.Control:
			return colorControl
		}
		return colorIdle
	})
}

func (s Shape) edges() string {
	f := s.Params.Fork
	result := fmt.Sprintf("\"fork\" [shape=diamond fontname=\"courier new\" label=\"fork\\n%s\"]\n", f)
	result = fmt.Sprintf("%s\"pt\" -> \"fork\" [style=bold label=\"%d shared rounds\"]\n", result, f.ForkPoint)
	result = fmt.Sprintf("%s\"fork\" -> \"ct\" [style=bold label=\"%d rounds, %d tweakeys skipped\"]\n", result, f.Rounds-f.ForkPoint, f.Skip)
	for w := 0; w < tweakey.Words; w++ {
		result = fmt.Sprintf("%s\"tk%d\" -> \"fork\" [style=\"dashed\" arrowhead=none color=grey]\n", result, w+1)
	}
	return result
}

func (s Shape) legend() string {
	return fmt.Sprintf("\"legend\" [label=<<table border=\"0\" cellborder=\"1\" cellspacing=\"0\">"+
		"<tr><td bgcolor=\"%s\">swept plaintext</td></tr>"+
		"<tr><td bgcolor=\"%s\">swept tweakey</td></tr>"+
		"<tr><td bgcolor=\"%s\">target</td></tr>"+
		"<tr><td bgcolor=\"%s\">control</td></tr>"+
		"<tr><td>%s encryptions</td></tr></table>>]\n",
		colorActive, colorTweakey, colorTarget, colorControl, encryptionsLabel(s.Params))
}

func encryptionsLabel(p integral.Params) string {
	return fmt.Sprintf("2^%d", p.ActiveBits())
}

// DOT returns the graph source.
func (s Shape) DOT() string {
	result := header
	result += s.plaintextNode()
	result += s.tweakeyNodes()
	result += s.ciphertextNode()
	result += s.edges()
	result += s.legend()
	return result + "}\n"
}

// SVG renders the graph through the embedded graphviz.
func (s Shape) SVG(ctx context.Context) ([]byte, error) {
	graph, err := graphviz.ParseBytes([]byte(s.DOT()))
	if err != nil {
		return nil, fmt.Errorf("draw: failed to parse graph: %w", err)
	}
	defer graph.Close()
	g, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("draw: failed to start graphviz: %w", err)
	}
	defer g.Close()
	var buf bytes.Buffer
	if err := g.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("draw: failed to render svg: %w", err)
	}
	return buf.Bytes(), nil
}

// CellLabel names a cell by row and column, as used in reports.
func CellLabel(i int) string {
	if i < 0 || i >= nibble.StateSize {
		return "none"
	}
	return fmt.Sprintf("cell %d (row %d, col %d)", i, i/4, i%4)
}
