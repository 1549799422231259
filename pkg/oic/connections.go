package oic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ConnectionFields is the fixed CSV column order for connection extracts.
// It must match ConnectionRow.Record.
var ConnectionFields = []string{
	"code",
	"adapter_type",
	"policy",
	"status",
	"usage",
	"usage_active",
	"host_url",
	"service_account",
}

// hostURLProperties lists connection property display names that identify
// the endpoint host, in priority order. The first name in this list with a
// matching property wins, regardless of property order in the API response.
var hostURLProperties = []string{
	"WSDL URL",
	"Connection URL",
	"Host",
	"ERP Cloud Host",
	"FTP Server Host Address",
}

// ConnectionRow is one normalized connection record.
// Missing source fields are empty strings, never omitted.
type ConnectionRow struct {
	Code           string
	AdapterType    string
	Policy         string
	Status         string
	Usage          string
	UsageActive    string
	HostURL        string
	ServiceAccount string
}

// Record returns the row's fields in ConnectionFields order.
func (r ConnectionRow) Record() []string {
	return []string{
		r.Code,
		r.AdapterType,
		r.Policy,
		r.Status,
		r.Usage,
		r.UsageActive,
		r.HostURL,
		r.ServiceAccount,
	}
}

// ConnectionRecords converts rows to CSV records in ConnectionFields order.
func ConnectionRecords(rows []ConnectionRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return records
}

// flexString decodes a JSON string, number, bool, or null into its string
// form. Absent and null source fields render as the empty string so rows
// always have the full field set.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = flexString(t)
	case float64:
		*s = flexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*s = flexString(strconv.FormatBool(t))
	default:
		*s = ""
	}
	return nil
}

type rawProperty struct {
	DisplayName   flexString `json:"displayName"`
	PropertyName  flexString `json:"propertyName"`
	PropertyValue flexString `json:"propertyValue"`
}

type rawConnection struct {
	ID          flexString `json:"id"`
	AdapterType struct {
		DisplayName flexString `json:"displayName"`
	} `json:"adapterType"`
	SecurityPolicy       flexString    `json:"securityPolicy"`
	Status               flexString    `json:"status"`
	Usage                flexString    `json:"usage"`
	UsageActive          flexString    `json:"usageActive"`
	ConnectionProperties []rawProperty `json:"connectionProperties"`
}

// normalizeConnection maps one raw API item into a ConnectionRow.
// Decoding failures degrade to an empty row rather than an error; the
// service account field is left empty for EnrichServiceAccounts to fill.
func normalizeConnection(item json.RawMessage) ConnectionRow {
	var raw rawConnection
	_ = json.Unmarshal(item, &raw)

	return ConnectionRow{
		Code:        string(raw.ID),
		AdapterType: string(raw.AdapterType.DisplayName),
		Policy:      string(raw.SecurityPolicy),
		Status:      string(raw.Status),
		Usage:       string(raw.Usage),
		UsageActive: string(raw.UsageActive),
		HostURL:     selectHostURL(raw.ConnectionProperties),
	}
}

// selectHostURL picks the connection's endpoint host from its properties.
// Selection follows hostURLProperties priority order, not property order.
func selectHostURL(props []rawProperty) string {
	for _, name := range hostURLProperties {
		for _, p := range props {
			if string(p.DisplayName) == name {
				return string(p.PropertyValue)
			}
		}
	}
	return ""
}

// ListConnections fetches every connection record for an instance.
//
// The sweep alternates between the per-instance host (primary) and the
// design host (secondary) on successive pages; see Pager for the pagination
// and failure rules. On a sweep error the rows collected so far are
// returned together with the error so the caller can report them without
// writing a truncated extract.
func (c *Client) ListConnections(ctx context.Context, primary, secondary, path, instance string, limit int, log LogFunc) ([]ConnectionRow, error) {
	pager := &Pager{
		Client:    c,
		Primary:   primary,
		Secondary: secondary,
		Path:      path,
		Instance:  instance,
		Limit:     limit,
		Log:       log,
	}
	items, err := pager.Run(ctx)

	rows := make([]ConnectionRow, len(items))
	for i, item := range items {
		rows[i] = normalizeConnection(item)
	}
	return rows, err
}

type connectionDetail struct {
	SecurityProperties []rawProperty `json:"securityProperties"`
}

// ServiceAccount fetches the service account configured on a connection.
// It returns the securityProperties entry named "username", or the empty
// string when the connection has none.
func (c *Client) ServiceAccount(ctx context.Context, host, code, instance string) (string, error) {
	u := fmt.Sprintf("%s/ic/api/integration/v1/connections/%s?integrationInstance=%s",
		host, url.PathEscape(code), url.QueryEscape(instance))

	var detail connectionDetail
	if err := c.Fetch(ctx, u, &detail); err != nil {
		return "", err
	}
	for _, p := range detail.SecurityProperties {
		if string(p.PropertyName) == "username" {
			return string(p.PropertyValue), nil
		}
	}
	return "", nil
}

// EnrichServiceAccounts fills the ServiceAccount field of each row with a
// per-connection detail lookup. It runs strictly after a completed sweep;
// a failed lookup is logged and skipped so one bad connection does not
// abort enrichment of the rest. Returns the number of rows enriched.
func (c *Client) EnrichServiceAccounts(ctx context.Context, host, instance string, rows []ConnectionRow, log LogFunc) int {
	enriched := 0
	for i := range rows {
		account, err := c.ServiceAccount(ctx, host, rows[i].Code, instance)
		if err != nil {
			if log != nil {
				log("fetch service account for %s: %v", rows[i].Code, err)
			}
			continue
		}
		rows[i].ServiceAccount = account
		enriched++
	}
	return enriched
}
