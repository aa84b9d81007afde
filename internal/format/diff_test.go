package format

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestDiff_Unchanged(t *testing.T) {
	d := Diff("a\nb\n", "a\nb\n")

	assert.False(t, d.Changed)
	assert.Equal(t, "No changes needed", d.String())
	assert.Equal(t, "", d.UnifiedDiff("registry.ts"))
	assert.Equal(t, "No changes", d.Stats())
}

func TestDiff_InsertedEntry(t *testing.T) {
	original := "const r = {\n    \"a\": a,\n    \"c\": c,\n};\n"
	formatted := "const r = {\n    \"a\": a,\n    \"b\": b,\n    \"c\": c,\n};\n"

	d := Diff(original, formatted)

	assert.True(t, d.Changed)
	assert.Equal(t, "1 lines added, 0 removed", d.Stats())

	expected := "--- a/registry.ts\n" +
		"+++ b/registry.ts\n" +
		"@@ -1,4 +1,5 @@\n" +
		" const r = {\n" +
		"     \"a\": a,\n" +
		"+    \"b\": b,\n" +
		"     \"c\": c,\n" +
		" };\n"
	assert.Equal(t, expected, d.UnifiedDiff("registry.ts"))
	assert.Contains(t, d.String(), "+     \"b\": b,")
}

func TestDiff_SeparateHunks(t *testing.T) {
	var a, b []string
	for i := 0; i < 20; i++ {
		line := string(rune('a' + i))
		a = append(a, line)
		b = append(b, line)
	}
	b[1] = "changed-1"
	b[18] = "changed-18"

	d := Diff(strings.Join(a, "\n")+"\n", strings.Join(b, "\n")+"\n")
	unified := d.UnifiedDiff("x.ts")

	assert.Equal(t, 2, strings.Count(unified, "@@ -"))
	assert.Contains(t, unified, "@@ -1,5 +1,5 @@")
	assert.Contains(t, unified, "@@ -16,5 +16,5 @@")
	assert.Equal(t, "2 lines added, 2 removed", d.Stats())
}

func TestDiff_FromEmpty(t *testing.T) {
	d := Diff("", "a\nb\n")

	assert.Equal(t, "2 lines added, 0 removed", d.Stats())
	assert.Contains(t, d.UnifiedDiff("r.ts"), "@@ -0,0 +1,2 @@")
}

func TestDiff_SingleLineWithoutTrailingNewline(t *testing.T) {
	d := Diff("a\n", "b")

	expected := "--- a/x.ts\n" +
		"+++ b/x.ts\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n"
	assert.Equal(t, expected, d.UnifiedDiff("x.ts"))
	assert.Equal(t, "@@ -1 +1 @@\n- a\n+ b\n", d.String())
	assert.Equal(t, "1 lines added, 1 removed", d.Stats())
}

func TestDiff_ReplacedBlockCountsBothSides(t *testing.T) {
	d := Diff("x\ny\nz\n", "x\n1\n2\n3\nz\n")

	assert.Equal(t, "3 lines added, 1 removed", d.Stats())
	assert.Contains(t, d.UnifiedDiff("r.ts"), "@@ -1,3 +1,5 @@")
}
