// Package notify sends the run summary to an operator mailbox. Delivery
// is best effort: the rewritten batch file is already durable when the
// notification goes out.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// subjectTail is how much of the batch file path ends up in the subject
// line, enough for the dated file name.
const subjectTail = 23

type Mailer struct {
	Host string // host:port of the relay
	From string
	To   string
}

func (m *Mailer) Send(path, summary string) error {
	msg := Message(m.From, m.To, path, summary)
	if err := smtp.SendMail(m.Host, nil, m.From, []string{m.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send notification via %s: %w", m.Host, err)
	}
	return nil
}

func Message(from, to, path, summary string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + Subject(path),
		"",
		summary,
		"",
	}, "\r\n")
}

func Subject(path string) string {
	if len(path) <= subjectTail {
		return path
	}
	return path[len(path)-subjectTail:]
}
