package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600))
	return path
}

func requireSpecError(t *testing.T, err error) *SpecError {
	t.Helper()
	require.Error(t, err)
	var se *SpecError
	require.True(t, errors.As(err, &se), "expected SpecError, got %T", err)
	return se
}

const helloV3 = `openapi: 3.0.0
info:
  title: Hello
  version: "1.0.0"
paths:
  /hello:
    get:
      operationId: hello
      responses:
        "200":
          description: ok
`

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	se := requireSpecError(t, err)
	assert.Equal(t, InputError, se.Code)
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	se := requireSpecError(t, err)
	assert.Equal(t, InputError, se.Code)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	se := requireSpecError(t, err)
	assert.Equal(t, InputError, se.Code)
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/spec.yaml",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(time.Millisecond))
	se := requireSpecError(t, err)
	assert.Equal(t, NetworkError, se.Code)
}

func TestLoad_HTTPRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(helloV3))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/api.yaml",
		WithHTTPClient(srv.Client()), WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Info.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLoad_HTTPClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/missing",
		WithHTTPClient(srv.Client()), WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	se := requireSpecError(t, err)
	assert.Equal(t, NetworkError, se.Code)
	assert.Contains(t, se.Message, "http 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoad_V3_File(t *testing.T) {
	t.Parallel()
	doc, err := Load(context.Background(), writeSpec(t, "api.yaml", helloV3))
	require.NoError(t, err)
	require.Contains(t, doc.Paths, "/hello")
	assert.Equal(t, "hello", doc.Paths["/hello"].Get.OperationID)
}

func TestLoad_V3_InvalidSpec(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "bad.yaml", `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)

	_, err := Load(context.Background(), path)
	se := requireSpecError(t, err)
	assert.Contains(t, []ErrorCode{ValidationError, ParseError}, se.Code)
	assert.NotEmpty(t, se.Location)
}

func TestLoad_UnknownVersion(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), writeSpec(t, "x.yaml", "info: {}\n"))
	se := requireSpecError(t, err)
	assert.Equal(t, ParseError, se.Code)
	assert.Contains(t, se.Message, "missing or unknown version")
}

func TestLoad_V2_Conversion_Success(t *testing.T) {
	t.Parallel()
	// Unquoted version number on purpose.
	path := writeSpec(t, "swagger.yaml", `swagger: 2.0
info:
  title: Sample
  version: "1.0.0"
basePath: /api
tags:
  - name: user-controller
    description: User Controller
paths:
  "/user/{id}":
    get:
      tags: [user-controller]
      operationId: getUserUsingGET
      parameters:
        - name: id
          in: path
          required: true
          type: integer
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/User"
definitions:
  User:
    type: object
    properties:
      name:
        type: string
`)

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.OpenAPI, "3."), "got %q", doc.OpenAPI)
	require.Contains(t, doc.Components.Schemas, "User")

	sm, err := BuildServiceModel(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, sm.Endpoints, 1)
	assert.Equal(t, "getUserUsingGET", sm.Endpoints[0].OperationID)
	assert.Equal(t, []TagModel{{Name: "user-controller", Description: "User Controller"}}, sm.Tags)
	require.Len(t, sm.Endpoints[0].Responses, 1)
	media := sm.Endpoints[0].Responses[0].Content
	require.NotEmpty(t, media)
	require.NotNil(t, media[0].Schema.Ref)
	assert.Equal(t, "User", SchemaName(media[0].Schema.Ref.Ref))
}

func TestLoad_V2_Conversion_Failure(t *testing.T) {
	t.Parallel()
	path := writeSpec(t, "swagger-bad.yaml", `swagger: "2.0"
paths: {}
`)

	_, err := Load(context.Background(), path)
	se := requireSpecError(t, err)
	assert.Contains(t, []ErrorCode{ConversionError, ValidationError, ParseError}, se.Code)
}

func TestMajorVersion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "3", majorVersion("3.0.1"))
	assert.Equal(t, "2", majorVersion(2.0))
	assert.Equal(t, "2", majorVersion(2))
	assert.Equal(t, "", majorVersion(nil))
}
