package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// AllowFileRefs permits file-based external $refs for remote roots.
	// Local roots always allow them.
	AllowFileRefs bool
	// HTTPClient overrides the client used for fetches. Tests use it to
	// reach httptest servers.
	HTTPClient *http.Client
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithHTTPClient(c *http.Client) Option   { return func(s *Settings) { s.HTTPClient = c } }

func (s Settings) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: s.HTTPTimeout}
}

// source is the raw bytes of an API description plus where they came from.
type source struct {
	raw      []byte
	location *url.URL
	display  string
	isFile   bool
}

// Load fetches an origin's API description and returns it as an OpenAPI v3
// document. Swagger 2.0 input is converted with openapi2conv.
//
// input is a filesystem path or an http/https URL. file:// URLs are refused.
func Load(ctx context.Context, input string, opts ...Option) (*openapi3.T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	src, err := readSource(ctx, input, settings)
	if err != nil {
		return nil, err
	}

	version, err := detectSpecVersion(src.raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: src.display, Cause: err}
	}

	loader := newLoader(settings, src.isFile)
	var doc *openapi3.T
	switch version {
	case 3:
		doc, err = loader.LoadFromDataWithPath(src.raw, src.location)
		if err != nil {
			return nil, mapValidateOrParseErr(err, src.display)
		}
	case 2:
		doc, err = convertV2ToV3(src.raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: src.display, Cause: err}
		}
		if err := loader.ResolveRefsIn(doc, src.location); err != nil {
			return nil, mapValidateOrParseErr(err, src.display)
		}
	}

	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, mapValidateOrParseErr(err, src.display)
	}
	return doc, nil
}

func readSource(ctx context.Context, input string, settings Settings) (*source, error) {
	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		switch scheme := strings.ToLower(u.Scheme); scheme {
		case "http", "https":
		case "file":
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked", Location: input}
		default:
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return &source{raw: raw, location: u, display: input}, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return &source{raw: raw, location: &url.URL{Path: filepath.ToSlash(abs)}, display: abs, isFile: true}, nil
}

func newLoader(settings Settings, rootIsFile bool) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := settings.client()
	allowFile := settings.AllowFileRefs || rootIsFile
	loader.ReadFromURIFunc = func(_ *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !allowFile {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(filepath.FromSlash(path))
		case "http", "https":
			resp, err := client.Get(uri.String())
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, uri.String())
			}
			return io.ReadAll(resp.Body)
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
// An unquoted `swagger: 2.0` decodes as a number, so both forms are read.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if majorVersion(root["openapi"]) == "3" {
		return 3, nil
	}
	if majorVersion(root["swagger"]) == "2" {
		return 2, nil
	}
	return 0, errors.New("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func majorVersion(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case int:
		s = strconv.Itoa(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
	major, _, _ := strings.Cut(s, ".")
	return major
}

// convertV2ToV3 goes through JSON so the openapi2 json tags apply to YAML
// input as well.
func convertV2ToV3(data []byte) (*openapi3.T, error) {
	js, err := k8syaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	if js, err = quoteSwaggerVersion(js); err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(js, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// quoteSwaggerVersion rewrites a numeric "swagger" field as a string so it
// decodes into openapi2.T.
func quoteSwaggerVersion(js []byte) ([]byte, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(js, &root); err != nil {
		return nil, err
	}
	raw, ok := root["swagger"]
	if !ok || strings.HasPrefix(string(raw), `"`) {
		return js, nil
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil, err
	}
	root["swagger"] = quoted
	return json.Marshal(root)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := settings.client()
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := max(settings.MaxRetries, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
}

func mapValidateOrParseErr(err error, location string) error {
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: extractJSONPointer(err), Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	return jsonPtrRe.FindString(err.Error())
}

// canProceedDespiteValidation returns true for validation errors where a
// best-effort build still makes sense, such as unresolved $ref entries.
func canProceedDespiteValidation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
