package servererror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	msg := Message("help@example.com")
	assert.Contains(t, msg, "We apologize but there is a problem in resolving your request to the server.")
	assert.Contains(t, msg, "Contact help@example.com if you continue to have any issues.")
}

func TestView(t *testing.T) {
	out := View("help@example.com", 0, 0)
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "help@example.com")
}
