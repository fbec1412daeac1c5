package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one file touched since a base revision. ChangedLines are
// line numbers in the new version; a pure deletion leaves it empty.
type ChangedFile struct {
	Path         string
	ChangedLines []int
}

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ChangedFiles runs git diff in root against baseRef and returns the Java
// files that changed, with paths relative to root.
func ChangedFiles(ctx context.Context, root, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", root, "diff", "-U0", "--relative", baseRef, "--", "*.java")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s failed: %w: %s", baseRef, err, strings.TrimSpace(stderr.String()))
	}
	return parseDiff(output)
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var changes []ChangedFile
	var current *ChangedFile
	flush := func() {
		if current != nil {
			changes = append(changes, *current)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git ") {
			parts := strings.Fields(line)
			if len(parts) < 4 {
				continue
			}
			flush()
			current = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/")}
			continue
		}
		if current == nil || !strings.HasPrefix(line, "@@") {
			continue
		}

		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("malformed hunk header %q", line)
		}
		start, _ := strconv.Atoi(m[1])
		count := 1
		if m[2] != "" {
			count, _ = strconv.Atoi(m[2])
		}
		for i := 0; i < count; i++ {
			current.ChangedLines = append(current.ChangedLines, start+i)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return changes, nil
}
