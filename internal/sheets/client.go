package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/oklahomer/go-kasumi/logger"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sheetboard/sheetboard/internal/config"
)

// SpreadsheetMimeType is the Drive MIME type of a native Google spreadsheet.
const SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Scopes are the OAuth2 scopes requested for the service account:
// read/write on spreadsheets, and file metadata to resolve the spreadsheet by its identifier.
var Scopes = []string{
	sheetsapi.SpreadsheetsScope,
	drive.DriveMetadataReadonlyScope,
}

// ClientOption defines a function signature for Client's functional options.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient    *http.Client
	sheetsBaseURL string
	driveBaseURL  string
	worksheet     string
}

// WithHTTPClient makes Connect use the given, already authorized, *http.Client instead of
// building one from the service-account credentials.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(options *clientOptions) {
		options.httpClient = client
	}
}

// WithEndpoints overrides the base URLs of the Sheets and Drive APIs.
func WithEndpoints(sheetsBaseURL, driveBaseURL string) ClientOption {
	return func(options *clientOptions) {
		options.sheetsBaseURL = sheetsBaseURL
		options.driveBaseURL = driveBaseURL
	}
}

// WithWorksheet selects a worksheet by title. The first worksheet is used when this is not given.
func WithWorksheet(title string) ClientOption {
	return func(options *clientOptions) {
		options.worksheet = title
	}
}

// Client is bound to one worksheet of one spreadsheet.
type Client struct {
	api           *sheetsapi.Service
	httpClient    *http.Client
	spreadsheetID string
	title         string
	worksheet     string
}

// Connect authenticates with the given credentials, resolves spreadsheetID through Drive,
// and picks the worksheet to operate on.
func Connect(ctx context.Context, creds *config.Credentials, spreadsheetID string, options ...ClientOption) (*Client, error) {
	opts := &clientOptions{}
	for _, opt := range options {
		opt(opts)
	}

	httpClient := opts.httpClient
	if httpClient == nil {
		if creds == nil {
			return nil, fmt.Errorf("connect: %w: no credentials given", ErrAuthentication)
		}

		jwtConfig, err := google.JWTConfigFromJSON(creds.JSON(), Scopes...)
		if err != nil {
			return nil, fmt.Errorf("connect: %w: unusable service account key", ErrAuthentication)
		}

		// Tokens are refreshed for the lifetime of the process, not of the startup context.
		httpClient = jwtConfig.Client(context.WithoutCancel(ctx))
		logger.Infof("Using %s", creds)
	}

	sheetsOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.sheetsBaseURL != "" {
		sheetsOpts = append(sheetsOpts, option.WithEndpoint(opts.sheetsBaseURL))
	}
	sheetsService, err := sheetsapi.NewService(ctx, sheetsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	driveOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.driveBaseURL != "" {
		driveOpts = append(driveOpts, option.WithEndpoint(opts.driveBaseURL))
	}
	driveService, err := drive.NewService(ctx, driveOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	file, err := driveService.Files.Get(spreadsheetID).
		Fields("id", "name", "mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("resolve spreadsheet", err)
	}
	if file.MimeType != SpreadsheetMimeType {
		return nil, fmt.Errorf("resolve spreadsheet: %w: %q is a %s", ErrNotFound, file.Name, file.MimeType)
	}

	spreadsheet, err := sheetsService.Spreadsheets.Get(spreadsheetID).
		Fields("properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("open spreadsheet", err)
	}

	worksheet, err := pickWorksheet(spreadsheet, opts.worksheet)
	if err != nil {
		return nil, err
	}

	title := file.Name
	if spreadsheet.Properties != nil && spreadsheet.Properties.Title != "" {
		title = spreadsheet.Properties.Title
	}
	logger.Infof("Opened spreadsheet %q (%s), worksheet %q", title, spreadsheetID, worksheet)

	return &Client{
		api:           sheetsService,
		httpClient:    httpClient,
		spreadsheetID: spreadsheetID,
		title:         title,
		worksheet:     worksheet,
	}, nil
}

func pickWorksheet(spreadsheet *sheetsapi.Spreadsheet, want string) (string, error) {
	for _, s := range spreadsheet.Sheets {
		if s.Properties == nil {
			continue
		}
		if want == "" || s.Properties.Title == want {
			return s.Properties.Title, nil
		}
	}

	if want == "" {
		return "", fmt.Errorf("open spreadsheet: %w: spreadsheet has no worksheets", ErrNotFound)
	}
	return "", fmt.Errorf("open spreadsheet: %w: no worksheet titled %q", ErrNotFound, want)
}

// Title returns the spreadsheet title.
func (c *Client) Title() string {
	return c.title
}

// Worksheet returns the title of the worksheet this client reads and appends to.
func (c *Client) Worksheet() string {
	return c.worksheet
}

// a1 quotes the worksheet title for use in A1 notation.
func (c *Client) a1(suffix string) string {
	quoted := "'" + strings.ReplaceAll(c.worksheet, "'", "''") + "'"
	if suffix == "" {
		return quoted
	}
	return quoted + "!" + suffix
}

// FetchRows reads the whole worksheet. Nothing is cached; every call hits the API.
func (c *Client) FetchRows(ctx context.Context) (*Snapshot, error) {
	resp, err := c.api.Spreadsheets.Values.Get(c.spreadsheetID, c.a1("")).
		MajorDimension("ROWS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("fetch rows", err)
	}

	snapshot := newSnapshot(c.worksheet, resp.Values)
	logger.Debugf("Fetched %d rows from worksheet %q", len(snapshot.Rows), c.worksheet)
	return snapshot, nil
}

// Header reads only the first row of the worksheet.
func (c *Client) Header(ctx context.Context) (Row, error) {
	resp, err := c.api.Spreadsheets.Values.Get(c.spreadsheetID, c.a1("1:1")).
		MajorDimension("ROWS").
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("fetch header", err)
	}

	if len(resp.Values) == 0 {
		return Row{}, nil
	}
	return toRow(resp.Values[0]), nil
}

// AppendRow adds values as a new last row. The number of values must equal the width of header,
// the worksheet's first row as returned by Header; a nil header is read first.
// Values are stored as given; nothing is interpreted as a formula.
func (c *Client) AppendRow(ctx context.Context, header Row, values []string) error {
	if header == nil {
		var err error
		if header, err = c.Header(ctx); err != nil {
			return err
		}
	}

	if len(header) == 0 {
		return fmt.Errorf("append row: %w: worksheet has no header row", ErrValidation)
	}
	if len(values) != len(header) {
		return fmt.Errorf("append row: %w: got %d values for %d columns", ErrValidation, len(values), len(header))
	}

	cells := make([]interface{}, 0, len(values))
	for _, v := range values {
		cells = append(cells, v)
	}

	resp, err := c.api.Spreadsheets.Values.Append(c.spreadsheetID, c.a1(""), &sheetsapi.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{cells},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classify("append row", err)
	}

	if resp.Updates != nil {
		logger.Infof("Appended row at %s", resp.Updates.UpdatedRange)
	}
	return nil
}

// WorksheetTitles lists every worksheet of the spreadsheet in display order.
func (c *Client) WorksheetTitles(ctx context.Context) ([]string, error) {
	spreadsheet, err := c.api.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("list worksheets", err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// Close releases idle connections. In-flight calls are left to finish.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}
