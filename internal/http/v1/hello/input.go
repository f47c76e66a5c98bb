package hello

// QueryInput carries the optional name query parameter.
type QueryInput struct {
	Name string `query:"name" doc:"Name to greet; World when absent or empty" example:"Ferris" default:"World"`
}

// PathInput carries the mandatory name path segment.
type PathInput struct {
	Name string `path:"name" doc:"Name to greet" example:"Ferris"`
}
