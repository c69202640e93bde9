// Package code generates and renders one-time verification codes.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Length is the number of digits in a verification code.
const Length = 6

var upperBound = big.NewInt(1_000_000)

// Generate returns a uniformly random zero-padded 6-digit code (000000–999999).
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, upperBound)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// IsWellFormed reports whether s looks like a code this package generates.
func IsWellFormed(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RenderInput carries everything a code message shows the applicant.
type RenderInput struct {
	FullName  string
	Code      string
	ExpiresAt time.Time
	LoginLink string
	SMS       bool
}

// Rendered is a ready-to-send message.
type Rendered struct {
	Subject string
	Body    string
}

// Render builds the applicant-facing text. SMS bodies stay on one line.
func Render(in RenderInput) Rendered {
	expires := in.ExpiresAt.UTC().Format("January 2, 2006 15:04 MST")
	if in.SMS {
		body := fmt.Sprintf("Your investor verification code is %s. It expires %s.", in.Code, expires)
		if in.LoginLink != "" {
			body += " Log in: " + in.LoginLink
		}
		return Rendered{Body: body}
	}

	name := strings.TrimSpace(in.FullName)
	if name == "" {
		name = "Investor"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Your shareholding has been confirmed by our Investor Relations team.\n")
	fmt.Fprintf(&b, "Your one-time verification code is: %s\n\n", in.Code)
	fmt.Fprintf(&b, "The code expires on %s and can be used once.\n", expires)
	if in.LoginLink != "" {
		fmt.Fprintf(&b, "Log in to complete verification: %s\n", in.LoginLink)
	}
	b.WriteString("\nIf you did not request this, please ignore this message.\n")
	return Rendered{
		Subject: "Your investor verification code",
		Body:    b.String(),
	}
}
