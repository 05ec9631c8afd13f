package chatmodel

import "strings"

// String wraps a plain text answer so it can be used where a typed
// ContentProvider output is expected.
type String struct {
	value string
}

// NewString returns a String holding the provided text.
func NewString(str string) *String {
	return &String{
		value: str,
	}
}

// GetContent returns the text for the chat history.
func (o String) GetContent() string {
	return string(o.value)
}

func (s String) String() string {
	return string(s.value)
}

func (s String) Bytes() []byte {
	return []byte(s.value)
}

// Unmarshal accepts raw model output, stripping surrounding quotes
// when the model returns a JSON-encoded string.
func (s *String) Unmarshal(bs []byte) error {
	str := strings.Trim(string(bs), "\"")

	*s = String{value: str}
	return nil
}
