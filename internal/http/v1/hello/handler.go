// Package hello serves the HTML greeting endpoints.
package hello

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/huma-hello/internal/platform/logging"
)

const (
	defaultName     = "World"
	contentTypeHTML = "text/html; charset=utf-8"
	msgInvalidName  = "name must be valid UTF-8"
)

// htmlResponse documents the text/html body for the OpenAPI spec.
func htmlResponse() map[string]*huma.Response {
	return map[string]*huma.Response{
		"200": {
			Description: "Greeting fragment",
			Content: map[string]*huma.MediaType{
				"text/html": {Schema: &huma.Schema{Type: huma.TypeString, Examples: []any{"<b>Hello World</b>"}}},
			},
		},
	}
}

// Register wires the greeting routes into api.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "hello-query",
		Method:      http.MethodGet,
		Path:        "/hello",
		Summary:     "Greet the name given in the query string",
		Tags:        []string{"Hello"},
		Responses:   htmlResponse(),
	}, queryHandler)

	huma.Register(api, huma.Operation{
		OperationID: "hello-path",
		Method:      http.MethodGet,
		Path:        "/hello/{name}",
		Summary:     "Greet the name given in the path",
		Tags:        []string{"Hello"},
		Responses:   htmlResponse(),
	}, pathHandler)
}

func queryHandler(ctx context.Context, input *QueryInput) (*HTMLOutput, error) {
	name := input.Name
	if name == "" {
		name = defaultName
	}
	if !utf8.ValidString(name) {
		return nil, huma.Error400BadRequest(msgInvalidName)
	}
	applog.LogInfo(ctx, "hello query", zap.String("name", name))
	return greet(name), nil
}

func pathHandler(ctx context.Context, input *PathInput) (*HTMLOutput, error) {
	if !utf8.ValidString(input.Name) {
		return nil, huma.Error400BadRequest(msgInvalidName)
	}
	applog.LogInfo(ctx, "hello path", zap.String("name", input.Name))
	return greet(input.Name), nil
}

// greet renders the fragment verbatim; the name is not HTML-escaped.
func greet(name string) *HTMLOutput {
	return &HTMLOutput{
		ContentType: contentTypeHTML,
		Body:        []byte("<b>Hello " + name + "</b>"),
	}
}
