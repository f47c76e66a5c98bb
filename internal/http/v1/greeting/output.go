package greeting

// JSONOutput wraps the static JSON greeting.
type JSONOutput struct {
	Body HelloJSON
}

// PostOutput wraps the POST acknowledgement.
type PostOutput struct {
	Body Message
}
