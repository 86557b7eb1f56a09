package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender 邮件发送接口，便于在测试里替换
type Sender interface {
	Send(to string, subject string, body string) error
}

type smtpSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) Sender {
	if from == "" {
		from = user
	}
	return &smtpSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *smtpSender) Send(to string, subject string, body string) error {
	if s.host == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var sb strings.Builder
	sb.WriteString("From: " + s.from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	sb.WriteString(body)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	return smtp.SendMail(addr, auth, s.from, []string{to}, []byte(sb.String()))
}
