package digest

import (
	"context"

	"github.com/wneessen/go-mail"
)

// sendFunc delivers one rendered digest. It exists so tests can swap
// out the SMTP client.
type sendFunc func(ctx context.Context, config *Config, creds Credentials, subject, htmlBody string) error

// sendMail delivers the digest over implicit-TLS SMTP. The digest is
// sent to the sender's own address.
func sendMail(ctx context.Context, config *Config, creds Credentials, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(creds.Address); err != nil {
		return err
	}
	if err := msg.To(creds.Address); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(config.SMTPHost,
		mail.WithPort(config.SMTPPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Address),
		mail.WithPassword(creds.Password),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
