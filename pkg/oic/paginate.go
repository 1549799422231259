package oic

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/oictools/oictl/pkg/errors"
)

// defaultPageLimit is the page size used when a Pager does not set one.
const defaultPageLimit = 100

// hostVariant selects which base URL a page is fetched from.
// The variant toggles explicitly between pages rather than being inferred
// from the offset, so alternation cannot drift off by one.
type hostVariant int

const (
	hostPrimary hostVariant = iota
	hostSecondary
)

func (h hostVariant) next() hostVariant {
	if h == hostPrimary {
		return hostSecondary
	}
	return hostPrimary
}

// page is the wire shape of one inventory response page.
type page struct {
	Items   []json.RawMessage `json:"items"`
	HasMore bool              `json:"hasMore"`
}

// Pager drives an offset/limit sweep over an inventory endpoint.
//
// Primary is the per-instance host; requests against it carry only limit and
// offset. Secondary, when non-empty, is the shared design host; requests
// against it additionally carry integrationInstance, and successive pages
// alternate between the two hosts within the same sweep. An empty Secondary
// pins the whole sweep to Primary.
type Pager struct {
	Client    *Client
	Primary   string // per-instance host, e.g. https://acme-dev.integration.eu-frankfurt-1.ocp.oraclecloud.com
	Secondary string // design host, empty to disable alternation
	Path      string // API path, e.g. /ic/api/integration/v1/connections
	Instance  string // integrationInstance value for secondary-host requests
	Limit     int    // page size, defaultPageLimit if zero
	Log       LogFunc
}

// Run performs the sweep and returns every raw item collected.
//
// Termination rules:
//   - a page with zero items always ends the sweep, even if hasMore is true
//   - a page with items and hasMore=false yields those items, then stops
//   - a fetch error aborts the sweep immediately; the items collected so
//     far are returned together with the error, and the sweep is not
//     resumed from the last successful offset
func (p *Pager) Run(ctx context.Context) ([]json.RawMessage, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var items []json.RawMessage
	offset := 0
	active := hostPrimary

	for {
		p.logf("fetching page at offset %d", offset)
		var pg page
		if err := p.Client.Fetch(ctx, p.pageURL(active, limit, offset), &pg); err != nil {
			return items, errors.Wrap(errors.ErrCodeFetch, err, "fetch page at offset %d", offset)
		}

		if len(pg.Items) == 0 {
			return items, nil
		}
		items = append(items, pg.Items...)

		if !pg.HasMore {
			return items, nil
		}
		offset += limit
		if p.Secondary != "" {
			active = active.next()
		}
	}
}

func (p *Pager) pageURL(active hostVariant, limit, offset int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	host := p.Primary
	if active == hostSecondary {
		host = p.Secondary
		q.Set("integrationInstance", p.Instance)
	}
	return host + p.Path + "?" + q.Encode()
}

func (p *Pager) logf(format string, args ...any) {
	if p.Log != nil {
		p.Log(format, args...)
	}
}
