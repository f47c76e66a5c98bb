package hello

// HTMLOutput is a greeting rendered as a raw HTML fragment.
type HTMLOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
