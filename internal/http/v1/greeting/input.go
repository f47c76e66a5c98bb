package greeting

// PostInput is the POST request body.
type PostInput struct {
	Body Payload
}
