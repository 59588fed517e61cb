package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// VerseRange is an inclusive verse-number range. End == Start addresses a
// single verse.
type VerseRange struct {
	Start int
	End   int
}

// DefaultRange is wide enough to cover the longest chapter in the corpus.
var DefaultRange = VerseRange{Start: 1, End: 200}

// ParseVerseRange accepts "start-end" or a single verse number.
func ParseVerseRange(s string) (VerseRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return VerseRange{}, fmt.Errorf("empty verse range")
	}

	if start, end, ok := strings.Cut(s, "-"); ok {
		from, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return VerseRange{}, fmt.Errorf("invalid range start %q", start)
		}
		to, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return VerseRange{}, fmt.Errorf("invalid range end %q", end)
		}
		r := VerseRange{Start: from, End: to}
		if err := r.Validate(); err != nil {
			return VerseRange{}, err
		}
		return r, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return VerseRange{}, fmt.Errorf("invalid verse number %q", s)
	}
	r := VerseRange{Start: n, End: n}
	if err := r.Validate(); err != nil {
		return VerseRange{}, err
	}
	return r, nil
}

func (r VerseRange) Validate() error {
	if r.Start < 1 {
		return fmt.Errorf("verse range start must be positive, got %d", r.Start)
	}
	if r.End < r.Start {
		return fmt.Errorf("verse range end %d before start %d", r.End, r.Start)
	}
	return nil
}

// Contains reports whether the verse number falls inside the range.
func (r VerseRange) Contains(verse int) bool {
	return verse >= r.Start && verse <= r.End
}

func (r VerseRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}
