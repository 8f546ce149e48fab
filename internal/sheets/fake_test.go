package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBackend serves the subset of the Sheets v4 and Drive v3 REST APIs the Client uses.
type fakeBackend struct {
	mu            sync.Mutex
	spreadsheetID string
	title         string
	mimeType      string
	worksheets    []string
	values        [][]interface{}
	appends       int

	// failures maps an operation name (drive, spreadsheet, values, header, append) to a status code and reason.
	failures map[string]fakeFailure
}

type fakeFailure struct {
	code    int
	reason  string
	message string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		spreadsheetID: "sheet-1",
		title:         "Status Board",
		mimeType:      SpreadsheetMimeType,
		worksheets:    []string{"Board", "Archive"},
		values: [][]interface{}{
			{"Name", "State"},
			{"Alice", "Active"},
			{"Bob", "Idle"},
		},
		failures: map[string]fakeFailure{},
	}
}

func (f *fakeBackend) fail(op string, code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = fakeFailure{code: code, reason: reason}
}

func (f *fakeBackend) appendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appends
}

func (f *fakeBackend) writeError(w http.ResponseWriter, failure fakeFailure) {
	message := failure.message
	if message == "" {
		message = "fake failure"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(failure.code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    failure.code,
			"message": message,
			"errors":  []map[string]string{{"reason": failure.reason, "message": message}},
		},
	})
}

func (f *fakeBackend) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/drive/v3/files/"):
		f.serveDrive(w, strings.TrimPrefix(path, "/drive/v3/files/"))

	case strings.HasPrefix(path, "/v4/spreadsheets/"):
		rest := strings.TrimPrefix(path, "/v4/spreadsheets/")
		id, valuesRange, hasValues := strings.Cut(rest, "/values/")
		if id != f.spreadsheetID {
			f.writeError(w, fakeFailure{code: http.StatusNotFound, reason: "notFound"})
			return
		}
		if !hasValues {
			f.serveSpreadsheet(w)
			return
		}
		if !f.hasWorksheet(valuesRange) {
			f.writeError(w, fakeFailure{
				code:    http.StatusBadRequest,
				reason:  "badRequest",
				message: "Unable to parse range: " + strings.TrimSuffix(valuesRange, ":append"),
			})
			return
		}
		if strings.HasSuffix(valuesRange, ":append") && r.Method == http.MethodPost {
			f.serveAppend(w, r)
			return
		}
		f.serveValues(w, valuesRange)

	default:
		http.NotFound(w, r)
	}
}

// hasWorksheet reports whether the A1 range names an existing worksheet.
func (f *fakeBackend) hasWorksheet(valuesRange string) bool {
	title, _, _ := strings.Cut(strings.TrimSuffix(valuesRange, ":append"), "!")
	if strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") && len(title) >= 2 {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}
	for _, ws := range f.worksheets {
		if ws == title {
			return true
		}
	}
	return false
}

func (f *fakeBackend) serveDrive(w http.ResponseWriter, id string) {
	if failure, ok := f.failures["drive"]; ok {
		f.writeError(w, failure)
		return
	}
	if id != f.spreadsheetID {
		f.writeError(w, fakeFailure{code: http.StatusNotFound, reason: "notFound"})
		return
	}
	f.writeJSON(w, map[string]string{"id": id, "name": f.title, "mimeType": f.mimeType})
}

func (f *fakeBackend) serveSpreadsheet(w http.ResponseWriter) {
	if failure, ok := f.failures["spreadsheet"]; ok {
		f.writeError(w, failure)
		return
	}
	sheets := make([]map[string]interface{}, 0, len(f.worksheets))
	for i, title := range f.worksheets {
		sheets = append(sheets, map[string]interface{}{
			"properties": map[string]interface{}{"sheetId": i, "title": title, "index": i},
		})
	}
	f.writeJSON(w, map[string]interface{}{
		"spreadsheetId": f.spreadsheetID,
		"properties":    map[string]string{"title": f.title},
		"sheets":        sheets,
	})
}

func (f *fakeBackend) serveValues(w http.ResponseWriter, valuesRange string) {
	values := f.values
	op := "values"
	if strings.HasSuffix(valuesRange, "!1:1") {
		op = "header"
		if len(values) > 1 {
			values = values[:1]
		}
	}
	if failure, ok := f.failures[op]; ok {
		f.writeError(w, failure)
		return
	}
	f.writeJSON(w, map[string]interface{}{
		"range":          valuesRange,
		"majorDimension": "ROWS",
		"values":         values,
	})
}

func (f *fakeBackend) serveAppend(w http.ResponseWriter, r *http.Request) {
	if failure, ok := f.failures["append"]; ok {
		f.writeError(w, failure)
		return
	}
	body := struct {
		Values [][]interface{} `json:"values"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.writeError(w, fakeFailure{code: http.StatusBadRequest, reason: "badRequest"})
		return
	}
	if r.URL.Query().Get("valueInputOption") != "RAW" {
		f.writeError(w, fakeFailure{code: http.StatusBadRequest, reason: "badRequest"})
		return
	}
	f.values = append(f.values, body.Values...)
	f.appends++
	f.writeJSON(w, map[string]interface{}{
		"spreadsheetId": f.spreadsheetID,
		"updates": map[string]interface{}{
			"updatedRange": fmt.Sprintf("Board!A%d:B%d", len(f.values), len(f.values)),
			"updatedRows":  1,
		},
	})
}

// connectFake starts backend on an httptest server and connects a Client to it.
func connectFake(t *testing.T, backend *fakeBackend, spreadsheetID string, options ...ClientOption) (*Client, error) {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	options = append([]ClientOption{
		WithHTTPClient(server.Client()),
		WithEndpoints(server.URL+"/", server.URL+"/drive/v3/"),
	}, options...)
	return Connect(context.Background(), nil, spreadsheetID, options...)
}
