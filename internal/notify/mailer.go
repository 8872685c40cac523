package notify

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/sirupsen/logrus"
)

// Sender is satisfied by *router.ServiceRouter.
type Sender interface {
	Send(message string, params *stypes.Params) []error
}

// Mailer sends plain-text mail through a shoutrrr smtp:// URL. Without a URL
// it only logs what would have been sent.
type Mailer struct {
	sender Sender
	from   string
}

func NewMailer(url, from string) (*Mailer, error) {
	m := &Mailer{from: from}
	if url == "" {
		logrus.Warn("MAIL_URL not set, outgoing mail will only be logged")
		return m, nil
	}
	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return nil, fmt.Errorf("invalid mail url: %w", err)
	}
	sender.Timeout = 10 * time.Second
	sender.SetLogger(log.New(io.Discard, "", 0))
	m.sender = sender
	return m, nil
}

// NewMailerWithSender is used by tests.
func NewMailerWithSender(s Sender, from string) *Mailer {
	return &Mailer{sender: s, from: from}
}

func (m *Mailer) Send(to, subject, body string) error {
	if m.sender == nil {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail not sent, no transport configured")
		return nil
	}
	params := stypes.Params{}
	params.SetTitle(subject)
	params["toaddresses"] = to
	if m.from != "" {
		params["fromaddress"] = m.from
	}

	var errs []error
	for _, err := range m.sender.Send(body, &params) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
