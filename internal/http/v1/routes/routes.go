// Package routes registers every versioned operation on the huma API.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/huma-hello/internal/http/v1/greeting"
	"github.com/janisto/huma-hello/internal/http/v1/hello"
)

// Register wires all operations into api.
func Register(api huma.API) {
	hello.Register(api)
	greeting.Register(api)
}
