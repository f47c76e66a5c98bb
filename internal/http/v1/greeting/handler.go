// Package greeting serves the JSON greeting endpoints under /api/hello.
package greeting

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/huma-hello/internal/platform/logging"
)

const (
	jsonMessage = "Hello Wyrld JSON"
	jsonNumber  = 69
	postMessage = "Success"
)

// Register wires the JSON routes into api.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "hello-json",
		Method:      http.MethodGet,
		Path:        "/api/hello/json",
		Summary:     "Return a fixed JSON greeting",
		Tags:        []string{"Greeting"},
	}, jsonHandler)

	huma.Register(api, huma.Operation{
		OperationID: "hello-post",
		Method:      http.MethodPost,
		Path:        "/api/hello/post",
		Summary:     "Accept a payload and acknowledge it",
		Description: "The payload is logged and otherwise ignored; the response never depends on it.",
		Tags:        []string{"Greeting"},
	}, postHandler)
}

func jsonHandler(_ context.Context, _ *struct{}) (*JSONOutput, error) {
	return &JSONOutput{Body: HelloJSON{Message: jsonMessage, Data: Data{Number: jsonNumber}}}, nil
}

func postHandler(ctx context.Context, input *PostInput) (*PostOutput, error) {
	applog.LogInfo(ctx, "hello post",
		zap.Stringp("word", input.Body.Word),
		zap.Int64p("number", input.Body.Number),
	)
	return &PostOutput{Body: Message{Message: postMessage}}, nil
}
