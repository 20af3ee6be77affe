// Package contact validates the contact form.
package contact

import (
	"regexp"
	"strings"
)

// Input holds the raw form fields as submitted.
type Input struct {
	Name    string
	Email   string
	Message string
}

// Result carries one error message per field; an empty message means the
// field passed. Messages are shown inline next to their fields.
type Result struct {
	Name    string
	Email   string
	Message string
}

// OK reports whether every field validated.
func (r Result) OK() bool {
	return r.Name == "" && r.Email == "" && r.Message == ""
}

// emailPattern requires a local part, an "@", and a domain containing at
// least one dot. Deliberately loose; real address verification is out of
// scope for a contact form.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks all three fields. Each field is required after trimming
// whitespace; the email must additionally match emailPattern.
func Validate(in Input) Result {
	var res Result

	if strings.TrimSpace(in.Name) == "" {
		res.Name = "Please enter your name"
	}

	switch email := strings.TrimSpace(in.Email); {
	case email == "":
		res.Email = "Please enter your email address"
	case !emailPattern.MatchString(email):
		res.Email = "Please enter a valid email address"
	}

	if strings.TrimSpace(in.Message) == "" {
		res.Message = "Please enter a message"
	}

	return res
}
