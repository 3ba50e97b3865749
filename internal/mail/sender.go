package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS dials TLS directly (port 465). Otherwise STARTTLS is used when offered.
	ImplicitTLS bool
	Timeout     time.Duration
}

// SMTPSender sends mail over SMTP with PLAIN authentication.
type SMTPSender struct {
	cfg    SMTPConfig
	client *gomail.Client
	now    func() time.Time
}

// NewSMTPSender creates an SMTPSender. No connection is made until Send.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if err := gomail.NewMsg().From(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.ImplicitTLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{cfg: cfg, client: client, now: time.Now}, nil
}

// Send delivers email. The context deadline bounds the whole exchange.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	msg, err := s.message(email)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(email Email) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetDateWithValue(s.now())
	msg.SetBodyString(gomail.TypeTextHTML, email.HTMLBody)
	return msg, nil
}

// LogSender writes emails to the log instead of delivering them.
// Used when no SMTP server is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "mail.log_sender")}
}

// Send logs the recipient and subject. The body carries a token and is never logged.
func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.InfoContext(ctx, "mail delivery skipped, no smtp server configured",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}
