// Package api builds the huma API shared by the server and the handler tests.
package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // registers application/cbor
	"github.com/go-chi/chi/v5"
)

const (
	// Title is the OpenAPI document title.
	Title = "Hello Demo API"
	// DocsPath serves the interactive API reference.
	DocsPath = "/docs"
)

// Config returns the huma configuration for the demo API.
//
// The schema link create hook is dropped so JSON bodies carry exactly the
// documented keys: no "$schema" property and no describedBy Link header.
func Config(version string) huma.Config {
	cfg := huma.DefaultConfig(Title, version)
	cfg.DocsPath = DocsPath
	cfg.CreateHooks = nil
	cfg.OnAddOperation = append(cfg.OnAddOperation, advertiseCBOR)
	return cfg
}

// New mounts a huma API on router.
func New(router chi.Router, version string) huma.API {
	return humachi.New(router, Config(version))
}

// advertiseCBOR documents application/cbor next to every application/json body.
func advertiseCBOR(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if content, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = content
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if content, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = content
		}
	}
}
