package mail

import "text/template"

var templates = template.Must(template.New("mail").Parse(`
{{define "confirmation.subject"}}Confirm your account email{{end}}
{{define "confirmation.body"}}Hello,

please confirm this email address for your game account by opening the link below:

{{.Link}}

If you did not request this, you can ignore this message.
{{end}}

{{define "recovery.subject"}}Password recovery{{end}}
{{define "recovery.body"}}Hello,

a password reset was requested for the game account registered with this address.
Open the link below and a new temporary password will be sent to you:

{{.Link}}

If you did not request this, you can ignore this message. Your password has not changed.
{{end}}

{{define "password.subject"}}Your temporary password{{end}}
{{define "password.body"}}Hello,

your password has been reset. Your new temporary password is:

{{.Password}}

Log in at {{.Login}} and change it as soon as possible.
{{end}}
`))
