package transfer

import (
	"reflect"
	"sort"
	"testing"
)

func TestClassify_ItemizedChanges(t *testing.T) {
	stdout := `receiving incremental file list
cd+++++++++ media/
cd+++++++++ media/photos/
>f+++++++++ media/photos/a.jpg
>f+++++++++ media/photos/b.jpg
>f.st...... media/notes.txt
.d..t...... archive/
*deleting   old/stale.bin
`

	summary := NewClassifier().Classify(stdout)

	if summary.NewFiles != 2 {
		t.Errorf("NewFiles = %d, want 2", summary.NewFiles)
	}
	if summary.ModifiedFiles != 1 {
		t.Errorf("ModifiedFiles = %d, want 1", summary.ModifiedFiles)
	}
	if summary.DeletedFiles != 1 {
		t.Errorf("DeletedFiles = %d, want 1", summary.DeletedFiles)
	}

	wantNew := []string{"media", "media/photos"}
	if !reflect.DeepEqual(summary.NewFolderPaths, wantNew) {
		t.Errorf("NewFolderPaths = %v, want %v", summary.NewFolderPaths, wantNew)
	}
	wantModified := []string{"archive"}
	if !reflect.DeepEqual(summary.ModifiedFolderPaths, wantModified) {
		t.Errorf("ModifiedFolderPaths = %v, want %v", summary.ModifiedFolderPaths, wantModified)
	}
	if summary.NewFolders != 2 || summary.ModifiedFolders != 1 {
		t.Errorf("folder counts = %d/%d, want 2/1", summary.NewFolders, summary.ModifiedFolders)
	}
}

func TestClassify_FolderCountsMatchPathLists(t *testing.T) {
	stdout := `cd+++++++++ a/
cd+++++++++ b/
.d..t...... c/
.d.st...... d/
`
	summary := NewClassifier().Classify(stdout)

	total := len(summary.NewFolderPaths) + len(summary.ModifiedFolderPaths)
	if total != summary.NewFolders+summary.ModifiedFolders {
		t.Errorf("path list lengths %d != counts %d", total, summary.NewFolders+summary.ModifiedFolders)
	}
	if !sort.StringsAreSorted(summary.NewFolderPaths) {
		t.Error("NewFolderPaths not sorted")
	}
	if !sort.StringsAreSorted(summary.ModifiedFolderPaths) {
		t.Error("ModifiedFolderPaths not sorted")
	}
}

func TestClassify_DuplicateFolderLinesCollapse(t *testing.T) {
	stdout := `cd+++++++++ media/
cd+++++++++ media/
.d..t...... media/
`
	summary := NewClassifier().Classify(stdout)

	if summary.NewFolders != 1 {
		t.Errorf("NewFolders = %d, want 1", summary.NewFolders)
	}
	// new wins: the same path never appears in both lists
	if summary.ModifiedFolders != 0 {
		t.Errorf("ModifiedFolders = %d, want 0 (path already counted new)", summary.ModifiedFolders)
	}
}

func TestClassify_RootFolderNormalized(t *testing.T) {
	summary := NewClassifier().Classify("cd+++++++++ ./\n")

	if summary.NewFolders != 1 {
		t.Fatalf("NewFolders = %d, want 1", summary.NewFolders)
	}
	if summary.NewFolderPaths[0] != "" {
		t.Errorf("root path = %q, want empty string", summary.NewFolderPaths[0])
	}
}

func TestClassify_StatsBlock(t *testing.T) {
	stdout := `Number of files: 120 (reg: 100, dir: 20)
Number of created files: 7 (reg: 6, dir: 1)
Number of deleted files: 3
Total bytes sent: 1,234,567
Total bytes received: 89,012
sent 1,234,567 bytes  received 89,012 bytes  45,678.00 bytes/sec
total size is 9,876,543  speedup is 1.23
`

	summary := NewClassifier().Classify(stdout)

	if summary.SentBytes != 1234567 {
		t.Errorf("SentBytes = %d, want 1234567", summary.SentBytes)
	}
	if summary.ReceivedBytes != 89012 {
		t.Errorf("ReceivedBytes = %d, want 89012", summary.ReceivedBytes)
	}
	if summary.TotalSourceSize != 9876543 {
		t.Errorf("TotalSourceSize = %d, want 9876543", summary.TotalSourceSize)
	}
	if summary.SpeedBPS != 45678 {
		t.Errorf("SpeedBPS = %v, want 45678", summary.SpeedBPS)
	}
	if summary.NewFiles != 7 {
		t.Errorf("NewFiles = %d, want 7 (stats block is authoritative)", summary.NewFiles)
	}
	if summary.DeletedFiles != 3 {
		t.Errorf("DeletedFiles = %d, want 3", summary.DeletedFiles)
	}
}

func TestClassify_StatsOverrideItemizedCounts(t *testing.T) {
	stdout := `>f+++++++++ a.txt
>f+++++++++ b.txt
Number of created files: 7
`
	summary := NewClassifier().Classify(stdout)

	if summary.NewFiles != 7 {
		t.Errorf("NewFiles = %d, want 7 (override)", summary.NewFiles)
	}
}

func TestClassify_EuropeanThousandsSeparators(t *testing.T) {
	summary := NewClassifier().Classify("Total bytes sent: 1.234.567\n")

	if summary.SentBytes != 1234567 {
		t.Errorf("SentBytes = %d, want 1234567", summary.SentBytes)
	}
}

func TestClassify_MalformedNumbersDefaultToZero(t *testing.T) {
	stdout := `Total bytes sent: garbage
Number of created files: n/a
`
	summary := NewClassifier().Classify(stdout)

	if summary.SentBytes != 0 {
		t.Errorf("SentBytes = %d, want 0", summary.SentBytes)
	}
	if summary.NewFiles != 0 {
		t.Errorf("NewFiles = %d, want 0", summary.NewFiles)
	}
}

func TestClassify_EmptyOutput(t *testing.T) {
	summary := NewClassifier().Classify("")

	if summary.AnyChanges() {
		t.Error("empty output should report no changes")
	}
	if summary.NewFolderPaths == nil || summary.ModifiedFolderPaths == nil {
		// sorted empty slices, not nil, keep reports stable
		t.Log("folder path slices are nil for empty output")
	}
}
