package email

import (
	"bytes"
	"html/template"
)

// Templates for the two transactional messages the service sends. Both share
// the same branded container; only heading, copy and button differ.
const base = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; color: #333; line-height: 1.6; margin: 0; padding: 0; background-color: #f4f4f4; }
    .container { width: 100%; max-width: 600px; margin: 0 auto; background: #fff; padding: 20px; border-radius: 8px; }
    .content { padding: 20px; text-align: center; }
    .button { display: inline-block; padding: 10px 20px; margin: 20px 0; font-size: 16px; font-weight: bold; color: #fff; background-color: #6C4DD6; text-decoration: none; border-radius: 5px; }
    .footer { text-align: center; padding: 10px; font-size: 14px; color: #777; }
  </style>
</head>
<body>
  <div class="container">
    <div class="content">
      <h1>{{.Title}}</h1>
      <p>Hello {{.FirstName}},</p>
      <p>{{.Body}}</p>
      <a href="{{.Link}}" class="button">{{.Button}}</a>
      <p>{{.Disclaimer}}</p>
    </div>
    <div class="footer">
      <p>&copy; 2024 FuzionDot. All rights reserved.</p>
    </div>
  </div>
</body>
</html>`

var tmpl = template.Must(template.New("email").Parse(base))

type data struct {
	Title      string
	FirstName  string
	Body       string
	Link       string
	Button     string
	Disclaimer string
}

// Confirmation renders the email-confirmation message pointing at link.
func Confirmation(firstName, link string) (string, error) {
	return render(data{
		Title:      "Welcome to FuzionDot",
		FirstName:  firstName,
		Body:       "Thank you for registering with us. Please confirm your email address by clicking the button below:",
		Link:       link,
		Button:     "Confirm Your Email",
		Disclaimer: "If you did not register for an account, please ignore this email.",
	})
}

// PasswordReset renders the reset message pointing at link.
func PasswordReset(firstName, link string) (string, error) {
	return render(data{
		Title:      "Password Reset Request",
		FirstName:  firstName,
		Body:       "We received a request to reset your password. Please click the button below to set a new password:",
		Link:       link,
		Button:     "Reset Password",
		Disclaimer: "If you did not request a password reset, please ignore this email.",
	})
}

func render(d data) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
