package notification

import (
	"bytes"
	"html/template"
)

// SubjectPrefix is prepended to every outgoing alert subject.
const SubjectPrefix = "[sesrelay] "

// emailTmpl is the HTML wrapper applied to every outgoing alert.
// {{.Subject}} and {{.Body}} are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#232f3e;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;">sesrelay</span>
              <span style="display:block;font-size:11px;color:#ff9900;margin-top:2px;">SES dispatch alert</span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:16px 40px;border-left:3px solid #ff9900;">
              <p style="margin:0;font-size:15px;font-weight:600;color:#111827;">{{.Subject}}</p>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:28px 40px;border-radius:0 0 12px 12px;">
              <div style="font-size:14px;line-height:1.7;color:#374151;font-family:Menlo,Consolas,monospace;
                          white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildSubject prepends the standard prefix to a subject line.
func buildSubject(subject string) string {
	return SubjectPrefix + subject
}

// buildEmailHTML renders the HTML email template with the given subject and body.
func buildEmailHTML(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct{ Subject, Body string }{subject, body})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
