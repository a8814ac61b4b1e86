package diff

import (
	"strings"
	"testing"
)

func TestComputeNoChanges(t *testing.T) {
	fd := Compute("a.txt", []byte("same\n"), []byte("same\n"), DefaultContext)
	if len(fd.Hunks) != 0 {
		t.Errorf("Compute() on identical content = %+v, want no hunks", fd.Hunks)
	}
}

func TestComputeSingleLineChange(t *testing.T) {
	fd := Compute("a.txt", []byte("one\ntwo\nthree\n"), []byte("one\nTWO\nthree\n"), DefaultContext)
	if len(fd.Hunks) != 1 {
		t.Fatalf("Compute() = %d hunks, want 1", len(fd.Hunks))
	}

	var hasDelete, hasAdd bool
	for _, l := range fd.Hunks[0].Lines {
		if l.Kind == Delete && l.Content == "two" {
			hasDelete = true
		}
		if l.Kind == Add && l.Content == "TWO" {
			hasAdd = true
		}
	}
	if !hasDelete || !hasAdd {
		t.Errorf("Compute() hunk = %+v, want a delete of 'two' and add of 'TWO'", fd.Hunks[0].Lines)
	}
}

func TestComputeDetectsBinary(t *testing.T) {
	fd := Compute("bin", []byte("text"), []byte{0, 1, 2, 3}, DefaultContext)
	if !fd.IsBinary {
		t.Error("Compute() on NUL-containing content did not set IsBinary")
	}
}

func TestComputeTruncatesOversizedBlobs(t *testing.T) {
	big := make([]byte, maxBlobSize+1)
	fd := Compute("huge", nil, big, DefaultContext)
	if !fd.Truncated {
		t.Error("Compute() on an oversized blob did not set Truncated")
	}
}

func TestSplitLinesTrailingNewlineSymmetry(t *testing.T) {
	withNewline := SplitLines([]byte("a\nb\n"))
	withoutNewline := SplitLines([]byte("a\nb"))
	if len(withNewline) != 2 || len(withoutNewline) != 2 {
		t.Errorf("SplitLines() = %v / %v, want 2 lines each", withNewline, withoutNewline)
	}
}

func TestFormatUnifiedRendersHeaders(t *testing.T) {
	fd := Compute("a.txt", []byte("one\n"), []byte("one\ntwo\n"), DefaultContext)
	out := FormatUnified(fd, "a/a.txt", "b/a.txt", nil)

	if !strings.Contains(out, "--- a/a.txt") || !strings.Contains(out, "+++ b/a.txt") {
		t.Errorf("FormatUnified() = %q, want unified diff headers", out)
	}
	if !strings.Contains(out, "+two") {
		t.Errorf("FormatUnified() = %q, want an added line '+two'", out)
	}
}

func TestFormatUnifiedBinary(t *testing.T) {
	fd := Compute("bin", []byte("text"), []byte{0, 1, 2}, DefaultContext)
	out := FormatUnified(fd, "a/bin", "b/bin", nil)
	if !strings.Contains(out, "Binary files") {
		t.Errorf("FormatUnified() on a binary diff = %q, want a binary-files notice", out)
	}
}

func TestIsBinaryDetectsNUL(t *testing.T) {
	if IsBinary([]byte("plain text")) {
		t.Error("IsBinary() on plain text = true")
	}
	if !IsBinary([]byte{'a', 0, 'b'}) {
		t.Error("IsBinary() on NUL-containing data = false")
	}
}
