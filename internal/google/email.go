package google

import (
	"notification-service/internal/template"

	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer *gomail.Dialer
}

func NewEmailService(email, password string) *EmailService {
	d := gomail.NewDialer("smtp.gmail.com", 587, email, password)
	return &EmailService{dialer: d}
}

func (e *EmailService) NewComplaintAlert(to, complaintID, issueType string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.dialer.Username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "New complaint registered")
	m.SetBody("text/html", template.NewComplaintAlertTemplate(complaintID, issueType))
	return e.dialer.DialAndSend(m)
}

// ComplaintAlertMailer binds an EmailService to the operator mailbox so the
// dispatcher does not need to know the address.
type ComplaintAlertMailer struct {
	svc *EmailService
	to  string
}

func NewComplaintAlertMailer(svc *EmailService, to string) *ComplaintAlertMailer {
	return &ComplaintAlertMailer{svc: svc, to: to}
}

func (m *ComplaintAlertMailer) NewComplaintAlert(complaintID, issueType string) error {
	return m.svc.NewComplaintAlert(m.to, complaintID, issueType)
}
