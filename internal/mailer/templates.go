package mailer

import (
	"fmt"
	"net/url"
)

// ResetPasswordMessage renders the reset email for a link built from baseURL
// and code.
func ResetPasswordMessage(baseURL, code string) (subject, text string, err error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("oobCode", code)
	u.RawQuery = q.Encode()

	subject = "Reset your administrator password"
	text = fmt.Sprintf("Use the link below to choose a new password. It can be used once.\n\n%s\n", u.String())
	return subject, text, nil
}
