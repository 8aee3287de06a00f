package diffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,4 +1,4 @@
 package main
-func old() {}
+func new() {}
 // trailing
\ No newline at end of file`

func TestParse(t *testing.T) {
	lines := Parse(strings.Split(sample, "\n"))
	require.Len(t, lines, 10)

	kinds := make([]Kind, len(lines))
	for i, l := range lines {
		kinds[i] = l.Kind
	}
	require.Equal(t, []Kind{
		KindMeta, KindMeta, KindMeta, KindMeta,
		KindHunk,
		KindContext, KindDel, KindAdd, KindContext,
		KindMeta,
	}, kinds)
}

func TestLine_Code(t *testing.T) {
	require.Equal(t, "func new() {}", Line{Kind: KindAdd, Text: "+func new() {}"}.Code())
	require.Equal(t, "func old() {}", Line{Kind: KindDel, Text: "-func old() {}"}.Code())
	require.Equal(t, "package main", Line{Kind: KindContext, Text: " package main"}.Code())
	require.Equal(t, "@@ -1,4 +1,4 @@", Line{Kind: KindHunk, Text: "@@ -1,4 +1,4 @@"}.Code())
	require.Equal(t, "", Line{Kind: KindContext, Text: ""}.Code())
}

func TestClassify_EdgeCases(t *testing.T) {
	require.Equal(t, KindMeta, Classify("Binary files a/img.png and b/img.png differ"))
	require.Equal(t, KindMeta, Classify("rename from old.go"))
	require.Equal(t, KindHunk, Classify("@@ -0,0 +1,3 @@"))
	// A context line starting with a space that contains a plus later.
	require.Equal(t, KindContext, Classify(" x := a + b"))
}

func TestStats(t *testing.T) {
	adds, dels := Stats(Parse(strings.Split(sample, "\n")))
	require.Equal(t, 1, adds)
	require.Equal(t, 1, dels)
}
