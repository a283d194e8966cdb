package screens

import (
	"fmt"
	"strings"

	"github.com/meridianpos/backoffice/internal/api"
)

// PageItem is one rendered pagination control. A nil URL renders as an inert
// element that never triggers a fetch.
type PageItem struct {
	Label  string
	URL    *string
	Active bool
}

// Pagination is the view model for the pagination bar.
type Pagination struct {
	Items     []PageItem
	RangeText string
}

// BuildPagination maps the server-supplied link list onto the rendered
// controls, in the given order. Previous/Next labels collapse to directional
// glyphs; everything else renders literally.
func BuildPagination(links []api.PageLink, meta api.PageMeta) Pagination {
	items := make([]PageItem, 0, len(links))
	for _, link := range links {
		label := link.Label
		switch {
		case strings.Contains(label, "Previous"):
			label = "‹"
		case strings.Contains(label, "Next"):
			label = "›"
		}
		items = append(items, PageItem{Label: label, URL: link.URL, Active: link.Active})
	}
	return Pagination{
		Items:     items,
		RangeText: fmt.Sprintf("%d to %d of %d", meta.From, meta.To, meta.Total),
	}
}
