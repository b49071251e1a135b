package notify

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"

	"gopkg.in/gomail.v2"

	"github.com/parisxmas/vacancyform/internal/models"
)

// SMTP mails the document to the fixed recipient, logging in as the
// submitter with the credential they supplied.
type SMTP struct {
	host     string
	port     int
	composer *Composer
}

func NewSMTP(host string, port int, composer *Composer) *SMTP {
	return &SMTP{host: host, port: port, composer: composer}
}

func (n *SMTP) Name() string { return "email" }

func (n *SMTP) Deliver(ctx context.Context, doc *models.RenderedDocument, rec *models.Record, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from := n.composer.Sender(rec)
	user := cred.Username
	if user == "" {
		user = from
	}
	if from == "" {
		from = user
	}
	if user == "" || cred.Secret == "" {
		return fmt.Errorf("%w: sender address and password are required", ErrAuthentication)
	}

	d := gomail.NewDialer(n.host, n.port, user, cred.Secret)
	if err := d.DialAndSend(n.composer.Message(doc, rec, from)); err != nil {
		return classifySMTP(err)
	}
	return nil
}

func classifySMTP(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %s", ErrAuthentication, tpErr.Msg)
		}
	}
	return fmt.Errorf("smtp: %w", err)
}
