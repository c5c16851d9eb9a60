package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"taskdesk/internal/models"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendTaskAssignedEmail(email string, task *models.TaskRecord) error
	SendReworkRequestedEmail(email string, task *models.TaskRecord, comment string, deadline time.Time) error
	SendTaskCompletedEmail(email string, task *models.TaskRecord) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<h3>Welcome, %s!</h3>
		<p>Your account has been created. You can now log in and see your tasks.</p>
	`, name)

	return s.send(email, "Welcome to TaskDesk", body)
}

func (s *emailService) SendTaskAssignedEmail(email string, task *models.TaskRecord) error {
	body := fmt.Sprintf(`
		<h3>New task assigned to you</h3>
		<p><strong>%s</strong></p>
		<p>%s</p>
		<p>Due date: %s, priority: %s.</p>
	`, task.Title, task.Description, task.DueDate.Format("2006-01-02"), task.Priority)

	return s.send(email, "New task: "+task.Title, body)
}

func (s *emailService) SendReworkRequestedEmail(email string, task *models.TaskRecord, comment string, deadline time.Time) error {
	body := fmt.Sprintf(`
		<h3>Rework requested</h3>
		<p>Your submission for <strong>%s</strong> needs rework.</p>
		<p>Reviewer comment: %s</p>
		<p>New deadline: %s.</p>
	`, task.Title, comment, deadline.Format("2006-01-02"))

	return s.send(email, "Rework requested: "+task.Title, body)
}

func (s *emailService) SendTaskCompletedEmail(email string, task *models.TaskRecord) error {
	body := fmt.Sprintf(`
		<h3>Task completed</h3>
		<p><strong>%s</strong> has been reviewed and marked as completed.</p>
	`, task.Title)

	return s.send(email, "Task completed: "+task.Title, body)
}
