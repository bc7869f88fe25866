package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"blueprep_backend/internal/config"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

var ErrNoRecipientAddress = errors.New("operator has no email address")

// Report is a rendered leaderboard ready to hand to operators.
type Report struct {
	TestID      uint
	Title       string
	Filename    string
	ContentType string
	Content     []byte
	Summary     string
	URL         string
}

// Deliverer sends a report to one operator. Failures are per recipient.
type Deliverer interface {
	DeliverReport(ctx context.Context, recipient config.Operator, report *Report) error
}

// EmailDeliverer mails the report as an attachment with the summary as body.
type EmailDeliverer struct {
	SMTP config.SMTPConfig
}

func NewEmailDeliverer(cfg config.SMTPConfig) *EmailDeliverer {
	return &EmailDeliverer{SMTP: cfg}
}

func (d *EmailDeliverer) DeliverReport(ctx context.Context, recipient config.Operator, report *Report) error {
	if recipient.Email == "" {
		return ErrNoRecipientAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = d.SMTP.From
	e.To = []string{recipient.Email}
	e.Subject = fmt.Sprintf("Leaderboard: %s", report.Title)
	e.Text = []byte(report.Summary)
	if report.URL != "" {
		e.Text = append(e.Text, []byte("\nArchived at: "+report.URL+"\n")...)
	}
	if _, err := e.Attach(bytes.NewReader(report.Content), report.Filename, report.ContentType); err != nil {
		return err
	}

	var auth smtp.Auth
	if d.SMTP.Username != "" {
		auth = smtp.PlainAuth("", d.SMTP.Username, d.SMTP.Password, d.SMTP.Host)
	}
	return e.Send(fmt.Sprintf("%s:%d", d.SMTP.Host, d.SMTP.Port), auth)
}

// LogDeliverer only logs; used in development.
type LogDeliverer struct{}

func (LogDeliverer) DeliverReport(ctx context.Context, recipient config.Operator, report *Report) error {
	logger.Log.Info("Leaderboard report",
		zap.Int64("operator", recipient.ID),
		zap.Uint("test_id", report.TestID),
		zap.String("file", report.Filename),
		zap.Int("bytes", len(report.Content)),
		zap.String("url", report.URL),
		zap.String("summary", report.Summary))
	return nil
}

func NewDeliverer(cfg *config.NotifyConfig) Deliverer {
	if cfg.Driver == util.NotifyEmail {
		return NewEmailDeliverer(cfg.SMTP)
	}
	return LogDeliverer{}
}
