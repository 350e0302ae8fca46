package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aluiziolira/fapool/models"
)

// unboundedPageItems asks the leaders page for every row in one response.
const unboundedPageItems = "2000000000"

// Builder turns (segment, stats, split) triples into provider requests.
type Builder struct {
	mode     models.Mode
	season   int
	pageURL  string
	registry models.Registry
}

// NewBuilder returns a builder for one mode and season. pageURL is only used
// in HTML mode.
func NewBuilder(mode models.Mode, season int, pageURL string, registry models.Registry) *Builder {
	return &Builder{
		mode:     mode,
		season:   season,
		pageURL:  pageURL,
		registry: registry,
	}
}

// BuildJob is Build for a job's fields.
func (b *Builder) BuildJob(job models.Job) (models.Descriptor, error) {
	return b.Build(job.Segment, job.Stats, job.Split)
}

// Build produces the descriptor for a segment. It only fails for inputs the
// roster validation should already have rejected.
func (b *Builder) Build(segment string, stats models.StatCategory, split models.Split) (models.Descriptor, error) {
	ids, ok := b.registry.Lookup(segment)
	if !ok {
		return models.Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownSegment, segment)
	}
	if !stats.Valid() {
		return models.Descriptor{}, fmt.Errorf("unknown stats category %q", stats)
	}
	month, ok := split.MonthCode()
	if !ok {
		return models.Descriptor{}, fmt.Errorf("unknown split %q", split)
	}

	players := joinIDs(ids)
	season := strconv.Itoa(b.season)

	if b.mode == models.ModeHTML {
		return models.Descriptor{
			Mode:  models.ModeHTML,
			URL:   b.pageRequestURL(season, string(stats), month, players),
			Empty: len(ids) == 0,
		}, nil
	}

	params := url.Values{}
	params.Set("ind", "0")
	params.Set("lg", "all")
	params.Set("pos", "all")
	params.Set("qual", "0")
	params.Set("season", season)
	params.Set("season1", season)
	params.Set("stats", string(stats))
	params.Set("month", strconv.Itoa(month))
	params.Set("players", players)
	params.Set("team", "0,ts")
	params.Set("rost", "0")
	params.Set("type", "8")
	params.Set("sortcol", "17")
	params.Set("sortdir", "default")
	params.Set("pageitems", "2000")
	params.Set("pagenum", "1")
	params.Set("filter", "")

	return models.Descriptor{Mode: models.ModeJSON, Params: params, Empty: len(ids) == 0}, nil
}

// pageRequestURL keeps the query in the leaders page's own order with literal
// commas in the player list.
func (b *Builder) pageRequestURL(season, stats string, month int, players string) string {
	var sb strings.Builder
	sb.WriteString(b.pageURL)
	sb.WriteString("?ind=0&lg=all&pos=all&qual=0")
	fmt.Fprintf(&sb, "&season=%s&season1=%s", season, season)
	fmt.Fprintf(&sb, "&type=1&stats=%s&month=%d", stats, month)
	sb.WriteString("&players=")
	sb.WriteString(players)
	sb.WriteString("&pageitems=")
	sb.WriteString(unboundedPageItems)
	return sb.String()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
