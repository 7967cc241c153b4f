package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"jrg-backend/shared/config"
)

// Mailer is the outbound mail surface the handlers depend on. Mail is
// best-effort: implementations report errors, callers decide whether a
// failed send may fail the request (it usually must not).
type Mailer interface {
	SendActivationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
	SendContactConfirmation(to, name string) error
	SendContactNotification(name, email, message string) error
	SendNewsletterConfirmation(to, unsubscribeToken string) error
}

// EmailService sends transactional mail over SMTP with HTML template bodies.
type EmailService struct {
	config    *config.Config
	templates *TemplateService
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		config:    cfg,
		templates: NewTemplateService(""),
	}
}

func (es *EmailService) SendActivationEmail(to, name, token string) error {
	return es.sendTemplate([]string{to}, "Activate your account", "activation", map[string]interface{}{
		"Name":          name,
		"ActivationURL": fmt.Sprintf("%s/activate?token=%s", es.config.FrontendURL, token),
	})
}

func (es *EmailService) SendPasswordResetEmail(to, name, token string) error {
	return es.sendTemplate([]string{to}, "Password reset request", "password_reset", map[string]interface{}{
		"Name":     name,
		"ResetURL": fmt.Sprintf("%s/password/reset?token=%s", es.config.FrontendURL, token),
	})
}

func (es *EmailService) SendContactConfirmation(to, name string) error {
	return es.sendTemplate([]string{to}, "We received your message", "contact_confirmation", map[string]interface{}{
		"Name": name,
	})
}

// SendContactNotification alerts the site administrator about a new
// contact message.
func (es *EmailService) SendContactNotification(name, email, message string) error {
	return es.sendTemplate([]string{es.config.AdminEmail}, "New contact message", "contact_notification", map[string]interface{}{
		"Name":    name,
		"Email":   email,
		"Message": message,
	})
}

func (es *EmailService) SendNewsletterConfirmation(to, unsubscribeToken string) error {
	return es.sendTemplate([]string{to}, "Newsletter subscription confirmed", "newsletter_confirmation", map[string]interface{}{
		"Email":          to,
		"UnsubscribeURL": fmt.Sprintf("%s/api/newsletter/unsubscribe?token=%s", es.config.AppURL, unsubscribeToken),
	})
}

func (es *EmailService) sendTemplate(to []string, subject, templateID string, vars map[string]interface{}) error {
	body, err := es.templates.Render(templateID, vars)
	if err != nil {
		log.Printf("Failed to render template %s: %v", templateID, err)
		return err
	}

	if err := es.sendSMTP(to, subject, body); err != nil {
		log.Printf("Failed to send email to %v: %v", to, err)
		return err
	}

	log.Printf("Email sent successfully to %v", to)
	return nil
}

func (es *EmailService) sendSMTP(to []string, subject, body string) error {
	host := es.config.SMTPHost
	port := es.config.SMTPPort
	username := es.config.SMTPUsername
	password := es.config.SMTPPassword
	from := es.config.EmailFrom

	if host == "" || username == "" || password == "" {
		return fmt.Errorf("SMTP configuration is incomplete")
	}

	auth := smtp.PlainAuth("", username, password, host)
	addr := fmt.Sprintf("%s:%s", host, port)
	message := es.buildMessage(to, subject, body)

	// Port 465 uses implicit TLS, other ports may use STARTTLS
	if port == "465" || es.config.SMTPUseTLS {
		return es.sendWithTLS(addr, auth, from, to, []byte(message))
	}

	return smtp.SendMail(addr, auth, from, to, []byte(message))
}

func (es *EmailService) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: host,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		return err
	}
	if err = client.Mail(from); err != nil {
		return err
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = w.Write(msg)
	return err
}

func (es *EmailService) buildMessage(to []string, subject, body string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", es.config.EmailFromName, es.config.EmailFrom))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.String()
}
