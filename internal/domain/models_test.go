package domain

import "testing"

func TestParseVerseRange(t *testing.T) {
	tests := []struct {
		input   string
		want    VerseRange
		wantErr bool
	}{
		{"1-10", VerseRange{Start: 1, End: 10}, false},
		{"5", VerseRange{Start: 5, End: 5}, false},
		{" 3 - 7 ", VerseRange{Start: 3, End: 7}, false},
		{"", VerseRange{}, true},
		{"abc", VerseRange{}, true},
		{"10-2", VerseRange{}, true},
		{"0-5", VerseRange{}, true},
	}

	for _, tt := range tests {
		got, err := ParseVerseRange(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVerseRange(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVerseRange(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVerseRange(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestVerseRange_Contains(t *testing.T) {
	r := VerseRange{Start: 3, End: 7}
	for _, v := range []int{3, 5, 7} {
		if !r.Contains(v) {
			t.Errorf("Expected range %s to contain %d", r, v)
		}
	}
	for _, v := range []int{1, 2, 8} {
		if r.Contains(v) {
			t.Errorf("Expected range %s to not contain %d", r, v)
		}
	}
}

func TestTaskRange_Default(t *testing.T) {
	task := &DownloadTask{Kind: TaskKindChapter, BookID: 1, Chapter: 1}
	if got := task.Range(); got != DefaultRange {
		t.Errorf("Expected default range %v, got %v", DefaultRange, got)
	}

	task.VerseStart = 4
	task.VerseEnd = 9
	if got := task.Range(); got != (VerseRange{Start: 4, End: 9}) {
		t.Errorf("Expected explicit range 4-9, got %v", got)
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusCompleted, TaskStatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusDownloading, TaskStatusPaused} {
		if s.Terminal() {
			t.Errorf("Expected %s to not be terminal", s)
		}
	}
}

func TestConnectionInfo_SuitableForDownloads(t *testing.T) {
	tests := []struct {
		info ConnectionInfo
		want bool
	}{
		{ConnectionInfo{Online: true, Quality: QualityExcellent}, true},
		{ConnectionInfo{Online: true, Quality: QualityGood}, true},
		{ConnectionInfo{Online: true, Quality: QualityFair}, false},
		{ConnectionInfo{Online: true, Quality: QualityPoor}, false},
		{ConnectionInfo{Online: false, Quality: QualityExcellent}, false},
	}
	for _, tt := range tests {
		if got := tt.info.SuitableForDownloads(); got != tt.want {
			t.Errorf("SuitableForDownloads(online=%v, quality=%s) = %v, want %v",
				tt.info.Online, tt.info.Quality, got, tt.want)
		}
	}
}
