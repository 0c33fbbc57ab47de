// Package mailtpl renders the transactional emails shared by the modules that
// send them.
package mailtpl

import (
	"bytes"
	"fmt"
	htmltpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

// DefaultOTPSubject is used when no subject is configured.
const DefaultOTPSubject = "Your OTP Code"

const otpText = `Your one-time passcode is {{.Code}}.

It expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}. If you did not request a password reset, ignore this email.
`

const otpHTML = `<!doctype html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <p>Your one-time passcode is:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
  <p>It expires in {{.Minutes}} minute{{if ne .Minutes 1}}s{{end}}. If you did not request a password reset, ignore this email.</p>
</body>
</html>
`

var (
	otpTextTpl = texttpl.Must(texttpl.New("otp.txt").Parse(otpText))
	otpHTMLTpl = htmltpl.Must(htmltpl.New("otp.html").Parse(otpHTML))
)

// OTP is the data of the passcode email.
type OTP struct {
	Code     string
	ValidFor time.Duration
}

// Rendered holds both bodies of an email.
type Rendered struct {
	Text string
	HTML string
}

// RenderOTP renders the passcode email.
func RenderOTP(data OTP) (Rendered, error) {
	if strings.TrimSpace(data.Code) == "" {
		return Rendered{}, fmt.Errorf("mailtpl: otp code is empty")
	}

	view := struct {
		Code    string
		Minutes int
	}{
		Code:    data.Code,
		Minutes: max(int(data.ValidFor/time.Minute), 1),
	}

	var text, html bytes.Buffer
	if err := otpTextTpl.Execute(&text, view); err != nil {
		return Rendered{}, fmt.Errorf("mailtpl: render otp text: %w", err)
	}
	if err := otpHTMLTpl.Execute(&html, view); err != nil {
		return Rendered{}, fmt.Errorf("mailtpl: render otp html: %w", err)
	}

	return Rendered{Text: text.String(), HTML: html.String()}, nil
}
