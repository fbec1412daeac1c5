package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff(t *testing.T) {
	diff := `diff --git a/src/RubyBlock.java b/src/RubyBlock.java
index 1111111..2222222 100644
--- a/src/RubyBlock.java
+++ b/src/RubyBlock.java
@@ -10 +10 @@ public class RubyBlock extends Block {
-    return 1;
+    return 2;
@@ -20,0 +21,3 @@ public class RubyBlock extends Block {
+  a
+  b
+  c
diff --git a/src/Old.java b/src/Old.java
deleted file mode 100644
--- a/src/Old.java
+++ /dev/null
@@ -1,4 +0,0 @@
-class Old {}
`
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "src/RubyBlock.java", changes[0].Path)
	assert.Equal(t, []int{10, 21, 22, 23}, changes[0].ChangedLines)

	assert.Equal(t, "src/Old.java", changes[1].Path)
	assert.Empty(t, changes[1].ChangedLines)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
