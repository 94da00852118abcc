// Package intake collects customer details before a consultation starts.
package intake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/huh"
	"github.com/eomgitae/care-console/internal/models"
	"golang.org/x/term"
)

var (
	ErrNameRequired = errors.New("customer name is required")
	ErrInvalidPhone = errors.New("phone number must be 9-11 digits starting with 0")
)

// ValidateName checks a customer name.
func ValidateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrNameRequired
	}
	return nil
}

// ValidatePhone accepts domestic numbers such as 010-1234-5678 or
// 0212345678. An empty value is allowed.
func ValidatePhone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '-' || r == ' ':
		default:
			return ErrInvalidPhone
		}
	}
	if digits < 9 || digits > 11 || NormalizePhone(s)[0] != '0' {
		return ErrInvalidPhone
	}
	return nil
}

// NormalizePhone strips separators and formats mobile numbers as
// 010-1234-5678. Other numbers are returned as bare digits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && strings.HasPrefix(d, "01") {
		return d[:3] + "-" + d[3:7] + "-" + d[7:]
	}
	return d
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run asks for the customer's name and phone number. Fields already set in
// initial are used as defaults.
func Run(in io.Reader, out io.Writer, initial models.Customer) (models.Customer, error) {
	name := initial.Name
	phone := initial.Phone

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("고객명").
				Description("Customer name").
				Placeholder("홍길동").
				Value(&name).
				Validate(ValidateName),
			huh.NewInput().
				Title("전화번호").
				Description("Optional, e.g. 010-1234-5678").
				Placeholder("010-0000-0000").
				Value(&phone).
				Validate(ValidatePhone),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if !IsTerminal(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return models.Customer{}, fmt.Errorf("customer intake: %w", err)
	}

	c := initial
	c.Name = strings.TrimSpace(name)
	c.Phone = ""
	if p := strings.TrimSpace(phone); p != "" {
		c.Phone = NormalizePhone(p)
	}
	return c, nil
}
