package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	common "github.com/NordCoder/Reminderus/internal/config/common"
	"github.com/NordCoder/Reminderus/internal/domain/notification"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("smtp host or recipient not configured")

const defaultTimeout = 15 * time.Second

var _ notification.EmailSender = (*Mailer)(nil)

// Mailer delivers every message to one fixed recipient.
type Mailer struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	to         string
	subjPrefix string

	now func() time.Time
	log *zap.Logger
}

func New(cfg common.SMTP, log *zap.Logger) (*Mailer, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Mailer{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    timeout,
		from:       from,
		to:         cfg.To,
		subjPrefix: cfg.SubjPrefix,
		now:        time.Now,
		log:        log.With(zap.String("component", "mailer")),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, msg notification.Message) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + msg.Subject)
	raw, err := buildMessage(m.from, m.to, subj, msg.Text, msg.HTML, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("subject", subj),
	)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.deliver(ctx, raw); err != nil {
		log.Error("sendmail failed", zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// deliver runs one SMTP session. The whole session, not only the dial, is bounded
// by the mailer timeout and by ctx, so a server that accepts and then stalls cannot
// hold the caller.
func (m *Mailer) deliver(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn, err := (&net.Dialer{Timeout: m.timeout}).DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	tlsCfg := &tls.Config{ServerName: host(m.addr), MinVersion: tls.VersionTLS12}
	if m.useTLS {
		conn = tls.Client(conn, tlsCfg)
	}
	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = c.Close() }()

	if !m.useTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsCfg); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := c.Rcpt(m.to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return c.Quit()
}

// buildMessage renders a text/plain message, or multipart/alternative when an
// HTML body is present.
func buildMessage(from, to, subject, text, html string, at time.Time) ([]byte, error) {
	var buf bytes.Buffer
	hdr := func(k, v string) { buf.WriteString(k + ": " + v + "\r\n") }

	hdr("From", from)
	hdr("To", to)
	hdr("Subject", mime.QEncoding.Encode("utf-8", subject))
	hdr("Date", at.Format(time.RFC1123Z))
	hdr("MIME-Version", "1.0")

	if html == "" {
		hdr("Content-Type", "text/plain; charset=utf-8")
		buf.WriteString("\r\n")
		buf.WriteString(crlf(text))
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", html},
	} {
		pw, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(crlf(part.content))); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	hdr("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")
	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
