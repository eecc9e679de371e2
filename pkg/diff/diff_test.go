package diff

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// 验证相同输入的输出恒定
func TestProperty_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs always yield identical scripts", prop.ForAll(
		func(a, b string) bool {
			first := Lines(a, b)
			second := Lines(a, b)
			return reflect.DeepEqual(first, second)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// 验证自身对比只产生 unchanged 行
func TestProperty_Identity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("diff of a text with itself is all unchanged", prop.ForAll(
		func(a string) bool {
			lines := Lines(a, a)
			wantCount := strings.Count(a, "\n") + 1
			if len(lines) != wantCount {
				return false
			}
			for _, l := range lines {
				if l.Type != LineUnchanged {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// 验证脚本可以完整还原两侧文本
func TestProperty_ScriptCoversBothSides(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("removed+unchanged rebuilds old, added+unchanged rebuilds new", prop.ForAll(
		func(a, b string) bool {
			var oldSide, newSide []string
			for _, l := range Lines(a, b) {
				switch l.Type {
				case LineRemoved:
					oldSide = append(oldSide, l.Content)
				case LineAdded:
					newSide = append(newSide, l.Content)
				case LineUnchanged:
					oldSide = append(oldSide, l.Content)
					newSide = append(newSide, l.Content)
				}
			}
			return strings.Join(oldSide, "\n") == a && strings.Join(newSide, "\n") == b
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestLines_Modification(t *testing.T) {
	lines := Lines("line1\nline2\nline3", "line1\nlineX\nline3")

	want := []Line{
		{Type: LineUnchanged, Content: "line1", OldLineNumber: 1, NewLineNumber: 1},
		{Type: LineRemoved, Content: "line2", OldLineNumber: 2},
		{Type: LineAdded, Content: "lineX", NewLineNumber: 2},
		{Type: LineUnchanged, Content: "line3", OldLineNumber: 3, NewLineNumber: 3},
	}
	assert.Equal(t, want, lines)
}

func TestLines_InsertAndDelete(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want []LineType
	}{
		{
			name: "pure insertion",
			old:  "a\nc",
			new:  "a\nb\nc",
			want: []LineType{LineUnchanged, LineAdded, LineUnchanged},
		},
		{
			name: "pure deletion",
			old:  "a\nb\nc",
			new:  "a\nc",
			want: []LineType{LineUnchanged, LineRemoved, LineUnchanged},
		},
		{
			name: "append at end",
			old:  "a",
			new:  "a\nb\nc",
			want: []LineType{LineUnchanged, LineAdded, LineAdded},
		},
		{
			name: "empty versus empty",
			old:  "",
			new:  "",
			want: []LineType{LineUnchanged},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Lines(tt.old, tt.new)
			got := make([]LineType, 0, len(lines))
			for _, l := range lines {
				got = append(got, l.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStats(t *testing.T) {
	added, removed, unchanged := Stats(Lines("a\nb\nc", "a\nx\nc\nd"))
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, unchanged)
}

func TestPatchRoundTrip(t *testing.T) {
	oldText := "# Executive Summary\n\nWe deliver care.\n"
	newText := "# Executive Summary\n\nWe deliver outstanding care.\nAnd more.\n"

	patch := MakePatch(oldText, newText)
	assert.NotEmpty(t, patch)

	got, ok := ApplyPatch(oldText, patch)
	assert.True(t, ok)
	assert.Equal(t, newText, got)
}

func TestApplyPatch_Empty(t *testing.T) {
	got, ok := ApplyPatch("base", "")
	assert.True(t, ok)
	assert.Equal(t, "base", got)
}
