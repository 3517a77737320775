package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gopkg.in/gomail.v2"
)

// SMTPConfig configures SMTPSender. When the Google OAuth2 fields are set the
// dialer authenticates with XOAUTH2 instead of Password.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
}

func (c SMTPConfig) usesOAuth2() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != ""
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers mail through an SMTP relay (Gmail by default).
type SMTPSender struct {
	dialer dialer
}

func NewSMTPSender(ctx context.Context, cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.usesOAuth2() {
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
		}
		src := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
		d.Auth = &xoauth2Auth{username: cfg.Username, source: src}
	}
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	buildMessage(m, msg)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(m *gomail.Message, msg Message) {
	m.SetAddressHeader("From", msg.From.Address, msg.From.Name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
}

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail.
type xoauth2Auth struct {
	username string
	source   oauth2.TokenSource
}

func (a *xoauth2Auth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	tok, err := a.source.Token()
	if err != nil {
		return "", nil, fmt.Errorf("oauth2 access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", nil, errors.New("oauth2 access token: empty token")
	}
	resp := "user=" + a.username + "\x01auth=Bearer " + tok.AccessToken + "\x01\x01"
	return "XOAUTH2", []byte(resp), nil
}

// On failure the server sends a JSON challenge and expects an empty reply
// before it returns the final error.
func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
