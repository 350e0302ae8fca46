// Package models defines data structures for the leaderboard fetcher.
package models

import (
	"fmt"
	"net/url"
)

// Mode selects which provider surface a run talks to.
type Mode string

const (
	// ModeJSON uses the structured leaders API.
	ModeJSON Mode = "json"
	// ModeHTML scrapes the rendered leaders page table.
	ModeHTML Mode = "html"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeJSON, ModeHTML:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want json or html)", s)
	}
}

// StatCategory is the provider stats selector.
type StatCategory string

const (
	Batting  StatCategory = "bat"
	Pitching StatCategory = "pit"
)

// Valid reports whether the category is one the provider understands.
func (c StatCategory) Valid() bool {
	return c == Batting || c == Pitching
}

// Split filters a player's events by opponent handedness.
type Split string

const (
	SplitAll     Split = "all"
	SplitVsLeft  Split = "vs_left"
	SplitVsRight Split = "vs_right"
)

// MonthCode returns the provider "month" parameter for the split.
func (s Split) MonthCode() (int, bool) {
	switch s {
	case SplitAll:
		return 0, true
	case SplitVsLeft:
		return 13, true
	case SplitVsRight:
		return 14, true
	default:
		return 0, false
	}
}

// Registry maps segment keys to ordered player IDs.
type Registry map[string][]int

// Lookup returns the player IDs for a segment.
func (r Registry) Lookup(key string) ([]int, bool) {
	ids, ok := r[key]
	return ids, ok
}

// Job is one unit of work producing exactly one output artifact.
type Job struct {
	Output  string       `yaml:"output" json:"output"`
	Segment string       `yaml:"segment" json:"segment"`
	Stats   StatCategory `yaml:"stats" json:"stats"`
	Split   Split        `yaml:"split" json:"split"`
}

func (j Job) String() string {
	return fmt.Sprintf("%s(%s/%s/%s)", j.Output, j.Segment, j.Stats, j.Split)
}

// Descriptor is a fully specified provider request. Structured mode fills
// Params; HTML mode fills URL.
type Descriptor struct {
	Mode   Mode
	Params url.Values
	URL    string
	// Empty is set when the segment has no players. The provider treats an
	// empty player filter as "everyone", so such a request must not be sent.
	Empty bool
}
