package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	simplemail "github.com/xhit/go-simple-mail/v2"
)

type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	From               string
	Encryption         string // "starttls", "ssl" or "none"
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// SMTPMailer opens a connection per message. The underlying client is not
// safe for concurrent use, so sends are serialised.
type SMTPMailer struct {
	server *simplemail.SMTPServer
	from   string

	mu sync.Mutex
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail: from address is required")
	}
	enc, err := parseEncryption(cfg.Encryption)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	server := simplemail.NewSMTPClient()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Username = cfg.Username
	server.Password = cfg.Password
	server.Encryption = enc
	server.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.InsecureSkipVerify}
	server.ConnectTimeout = timeout
	server.SendTimeout = timeout
	server.KeepAlive = false
	if cfg.Username == "" {
		server.Authentication = simplemail.AuthNone
	}

	return &SMTPMailer{server: server, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	email := simplemail.NewMSG()
	email.SetFrom(m.from).AddTo(msg.To).SetSubject(msg.Subject).SetBody(simplemail.TextPlain, msg.Text)
	if msg.HTML != "" {
		email.AddAlternative(simplemail.TextHTML, msg.HTML)
	}
	if email.Error != nil {
		return fmt.Errorf("mail: build message: %w", email.Error)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	client, err := m.server.Connect()
	if err != nil {
		return fmt.Errorf("mail: connect %s: %w", m.server.Host, err)
	}
	defer func() { _ = client.Close() }()

	if err := email.Send(client); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

func parseEncryption(s string) (simplemail.Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "starttls":
		return simplemail.EncryptionSTARTTLS, nil
	case "ssl", "tls":
		return simplemail.EncryptionSSLTLS, nil
	case "none":
		return simplemail.EncryptionNone, nil
	default:
		return simplemail.EncryptionNone, fmt.Errorf("mail: unknown smtp encryption %q", s)
	}
}
