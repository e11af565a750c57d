package mailer

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/Astemirdum/booktracker/pkg/circuit_breaker"
	"github.com/Astemirdum/booktracker/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASSWORD" json:"-"`
	From     string `envconfig:"SMTP_FROM"`
}

func (c Config) Enabled() bool {
	return c.Host != ""
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender Sender
	from   string
	cb     circuit_breaker.CircuitBreaker
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, log)
}

func NewWithSender(sender Sender, from string, log *zap.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		from:   from,
		cb:     circuit_breaker.New(20, time.Minute, 0.5, 3),
		log:    log.Named("mailer"),
	}
}

var bookAddedTmpl = template.Must(template.New("book_added").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #059669; color: white; padding: 20px; text-align: center;">
    <h1>Book Library Manager</h1>
  </div>
  <div style="padding: 30px; background-color: #f8fafc;">
    <h2 style="color: #1f2937;">New Book Added!</h2>
    <p style="color: #4b5563; font-size: 16px; line-height: 1.6;">
      Hello {{.Name}}, you've successfully added a new book to your library:
    </p>
    <div style="background-color: white; border: 2px solid #e5e7eb; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <h3 style="color: #1f2937; margin-top: 0;">{{.Title}}</h3>
      <p style="color: #6b7280; margin: 0;">Keep up the great work building your personal library!</p>
    </div>
    <p style="color: #4b5563; font-size: 16px; line-height: 1.6;">
      Don't forget to update your reading status as you progress through your books!
    </p>
  </div>
  <div style="background-color: #e5e7eb; padding: 20px; text-align: center; color: #6b7280;">
    <p>Happy reading!</p>
    <p><small>This email was sent from Book Library Manager</small></p>
  </div>
</div>`))

// SendBookAdded tells the owner a book landed in their library.
func (m *Mailer) SendBookAdded(ctx context.Context, to, name, title string) error {
	if to == "" {
		return errors.New("recipient address is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := bookAddedTmpl.Execute(&body, struct{ Name, Title string }{name, title}); err != nil {
		return errors.Wrap(err, "render book_added")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "New Book Added: "+title)
	msg.SetBody("text/html", body.String())

	err := m.cb.Call(func() error {
		return m.sender.DialAndSend(msg)
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues("error").Inc()
		return errors.Wrap(err, "send book_added")
	}
	metrics.EmailsSent.WithLabelValues("ok").Inc()
	m.log.Debug("book added email sent", zap.String("to", to))
	return nil
}
