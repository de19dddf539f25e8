package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"SwingSentinel/internal/model"
)

// EmailNotifier sends alerts over SMTP with STARTTLS.
type EmailNotifier struct {
	Sender   string
	Password string
	Receiver string
	Server   string
	Port     int

	// Timeout bounds one delivery when the caller's context has no deadline.
	Timeout time.Duration

	// send is swapped in tests.
	send func(deadline time.Time, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(sender, password, receiver, server string, port int) *EmailNotifier {
	if server == "" {
		server = "smtp.gmail.com"
	}
	if port == 0 {
		port = 587
	}
	return &EmailNotifier{
		Sender:   sender,
		Password: password,
		Receiver: receiver,
		Server:   server,
		Port:     port,
		Timeout:  30 * time.Second,
		send:     sendStartTLS,
	}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Configured() bool {
	return e.Sender != "" && e.Password != "" && e.Receiver != ""
}

func (e *EmailNotifier) Notify(ctx context.Context, symbol string, sig model.Signal) bool {
	if !e.Configured() {
		return false
	}
	subject, text, html := FormatSignalEmail(symbol, &sig)
	if err := e.deliver(ctx, subject, text, html); err != nil {
		log.Printf("[ERROR] email alert for %s: %v", sig.ID, err)
		return false
	}
	log.Printf("[INFO] email alert sent for %s %s signal", symbol, sig.Direction)
	return true
}

func (e *EmailNotifier) SendTest(ctx context.Context) error {
	if !e.Configured() {
		return fmt.Errorf("email not configured: %w", model.ErrNotificationFailed)
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	html := "<html><body><h2>Email Configuration Test</h2>" +
		"<p>If you received this email, SwingSentinel alerts are configured correctly.</p>" +
		"<p>Test sent at: " + now + "</p></body></html>"
	return e.deliver(ctx, "SwingSentinel - Test Email", "SwingSentinel test email sent at "+now, html)
}

func (e *EmailNotifier) deliver(ctx context.Context, subject, text, html string) error {
	msg, err := buildMessage(e.Sender, e.Receiver, subject, text, html)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	addr := net.JoinHostPort(e.Server, strconv.Itoa(e.Port))
	auth := smtp.PlainAuth("", e.Sender, e.Password, e.Server)

	deadline, ok := ctx.Deadline()
	if !ok && e.Timeout > 0 {
		deadline = time.Now().Add(e.Timeout)
	}
	done := make(chan error, 1)
	go func() { done <- e.send(deadline, addr, auth, e.Sender, []string{e.Receiver}, msg) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}

// buildMessage renders a multipart/alternative message with text and HTML parts.
func buildMessage(from, to, subject, text, html string) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	} {
		pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// sendStartTLS dials, upgrades with STARTTLS and sends. smtp.SendMail would
// also upgrade, but only opportunistically. The whole exchange shares one
// connection deadline.
func sendStartTLS(deadline time.Time, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()
	if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if err := c.Auth(a); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}
