package oic

import (
	"context"
	"encoding/json"
)

// IntegrationFields is the fixed CSV column order for integration extracts.
// It must match IntegrationRow.Record.
var IntegrationFields = []string{
	"code",
	"name",
	"id",
	"status",
	"endpoint",
	"description",
}

// IntegrationRow is one normalized integration record.
// Missing source fields are empty strings, never omitted.
type IntegrationRow struct {
	Code        string
	Name        string
	ID          string
	Status      string
	Endpoint    string
	Description string
}

// Record returns the row's fields in IntegrationFields order.
func (r IntegrationRow) Record() []string {
	return []string{
		r.Code,
		r.Name,
		r.ID,
		r.Status,
		r.Endpoint,
		r.Description,
	}
}

// IntegrationRecords converts rows to CSV records in IntegrationFields order.
func IntegrationRecords(rows []IntegrationRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return records
}

type rawIntegration struct {
	Code        flexString `json:"code"`
	Name        flexString `json:"name"`
	ID          flexString `json:"id"`
	Status      flexString `json:"status"`
	EndPointURI flexString `json:"endPointURI"`
	Description flexString `json:"description"`
}

func normalizeIntegration(item json.RawMessage) IntegrationRow {
	var raw rawIntegration
	_ = json.Unmarshal(item, &raw)

	return IntegrationRow{
		Code:        string(raw.Code),
		Name:        string(raw.Name),
		ID:          string(raw.ID),
		Status:      string(raw.Status),
		Endpoint:    string(raw.EndPointURI),
		Description: string(raw.Description),
	}
}

// ListIntegrations fetches every integration record for an instance.
//
// Unlike connections, the integrations sweep stays on a single host: the
// endpoint has not shown the host-availability drift that forced the
// dual-host alternation for connections. Pagination and failure rules are
// otherwise identical (see Pager).
func (c *Client) ListIntegrations(ctx context.Context, host, path, instance string, limit int, log LogFunc) ([]IntegrationRow, error) {
	pager := &Pager{
		Client:   c,
		Primary:  host,
		Path:     path,
		Instance: instance,
		Limit:    limit,
		Log:      log,
	}
	items, err := pager.Run(ctx)

	rows := make([]IntegrationRow, len(items))
	for i, item := range items {
		rows[i] = normalizeIntegration(item)
	}
	return rows, err
}
