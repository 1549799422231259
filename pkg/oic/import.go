package oic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oictools/oictl/pkg/errors"
)

// Outcome statuses recorded in the import summary.
const (
	StatusSuccess     = "SUCCESS"
	ImportStatusError = "ERROR"
)

// ImportFields is the fixed CSV header for import summaries.
var ImportFields = []string{"INTEGRATION", "STATUS", "MESSAGE"}

// packageExt is the file extension of integration archives.
const packageExt = ".iar"

// ImportOutcome records the result of importing one package.
// Message is "Imported", "Replaced", the terminal HTTP status code as a
// string, or an error description for network-level failures.
type ImportOutcome struct {
	Integration string
	Status      string
	Message     string
}

// Record returns the outcome's fields in ImportFields order.
func (o ImportOutcome) Record() []string {
	return []string{o.Integration, o.Status, o.Message}
}

// ImportRecords converts outcomes to CSV records in ImportFields order.
func ImportRecords(outcomes []ImportOutcome) [][]string {
	records := make([][]string, len(outcomes))
	for i, o := range outcomes {
		records[i] = o.Record()
	}
	return records
}

// Importer uploads integration archives to the import endpoint.
type Importer struct {
	client *Client
	url    string
	Log    LogFunc
}

// NewImporter creates an Importer targeting the given host and API path for
// one integration instance.
func NewImporter(client *Client, host, apiPath, instance string) *Importer {
	return &Importer{
		client: client,
		url:    fmt.Sprintf("%s%s?integrationInstance=%s", host, apiPath, url.QueryEscape(instance)),
	}
}

// Import uploads one package with create-then-replace conflict resolution:
//
//	POST → 200/204          SUCCESS "Imported"
//	POST → 409, PUT → 200/204  SUCCESS "Replaced"
//	POST → 409, PUT → other    ERROR <status>
//	POST → other            ERROR <status>
//
// The identical multipart payload is reused for the PUT, making a repeated
// import of the same package idempotent. Terminal error statuses are data,
// not errors; an error return means the upload itself failed at the network
// level and the caller decides whether that aborts anything beyond this
// package.
func (im *Importer) Import(ctx context.Context, path string) (ImportOutcome, error) {
	name := filepath.Base(path)

	status, err := im.client.UploadPackage(ctx, http.MethodPost, im.url, path)
	if err != nil {
		return ImportOutcome{}, err
	}

	switch {
	case isSuccess(status):
		return ImportOutcome{name, StatusSuccess, "Imported"}, nil
	case status == http.StatusConflict:
		status, err = im.client.UploadPackage(ctx, http.MethodPut, im.url, path)
		if err != nil {
			return ImportOutcome{}, err
		}
		if isSuccess(status) {
			return ImportOutcome{name, StatusSuccess, "Replaced"}, nil
		}
		return ImportOutcome{name, ImportStatusError, strconv.Itoa(status)}, nil
	default:
		return ImportOutcome{name, ImportStatusError, strconv.Itoa(status)}, nil
	}
}

// ImportDirectory imports every .iar package directly inside dir,
// non-recursively and in lexicographic name order so summaries are
// reproducible across filesystems.
//
// Each package succeeds or fails independently: an upload error for one
// file is converted into an ERROR outcome and the batch continues. Only a
// missing directory or a cancelled context aborts the batch.
func (im *Importer) ImportDirectory(ctx context.Context, dir string) ([]ImportOutcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read package directory %s", dir)
	}

	var outcomes []ImportOutcome
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), packageExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome, err := im.Import(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			im.logf("import %s: %v", entry.Name(), err)
			outcome = ImportOutcome{entry.Name(), ImportStatusError, errors.UserMessage(err)}
		}
		im.logf("importing %s: %s (%s)", outcome.Integration, outcome.Status, outcome.Message)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// isSuccess reports whether an upload status is one of the success codes
// the import endpoint returns (200 for create, 204 for replace).
func isSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusNoContent
}

func (im *Importer) logf(format string, args ...any) {
	if im.Log != nil {
		im.Log(format, args...)
	}
}
