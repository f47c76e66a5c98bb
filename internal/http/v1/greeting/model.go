package greeting

// Data is the nested object of the static JSON greeting.
type Data struct {
	Number int `json:"number" doc:"Fixed number" example:"69"`
}

// HelloJSON is the static JSON greeting. The capitalized keys are part of the wire format.
type HelloJSON struct {
	Message string `json:"Message" doc:"Fixed greeting" example:"Hello Wyrld JSON"`
	Data    Data   `json:"Data"`
}

// Payload is the accepted POST body. Both fields are optional and only logged;
// unknown keys are ignored.
type Payload struct {
	_      struct{} `json:"-" additionalProperties:"true"`
	Word   *string  `json:"word,omitempty" nullable:"true" doc:"Any word" example:"x"`
	Number *int64   `json:"number,omitempty" nullable:"true" doc:"Any signed integer" example:"5"`
}

// Message is the generic single-message response.
type Message struct {
	Message string `json:"message" doc:"Outcome" example:"Success"`
}
