package mailer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/mailer"
)

type MailerService struct {
	log    *zap.Logger
	sender mailer.Sender
}

func NewMailerService(log *zap.Logger, sender mailer.Sender) *MailerService {
	return &MailerService{
		log:    log,
		sender: sender,
	}
}

func (m *MailerService) SendExportReadyEmail(userEmail, exportID string, months int, location string) error {
	subject := "Your booking analytics export is ready"
	where := "Download it from the API at /v1/analytics/exports/" + exportID + "."
	if location != "" {
		where = "It has also been archived at " + location + "."
	}
	body := fmt.Sprintf(`
Hello,

The %d-month analytics report you requested (export %s) has finished.

%s

Best regards,
StayInsights
`, months, exportID, where)

	return m.send(mailer.Mail{To: userEmail, Subject: subject, Body: body}, "export ready", exportID)
}

func (m *MailerService) SendExportFailedEmail(userEmail, exportID string) error {
	subject := "Your booking analytics export failed"
	body := fmt.Sprintf(`
Hello,

We could not build export %s because the reservation system did not answer.
Please request it again in a few minutes.

Best regards,
StayInsights
`, exportID)

	return m.send(mailer.Mail{To: userEmail, Subject: subject, Body: body}, "export failed", exportID)
}

func (m *MailerService) send(mail mailer.Mail, kind, exportID string) error {
	if err := m.sender.Send(mail); err != nil {
		m.log.Error("Failed to send email", zap.String("kind", kind), zap.Error(err), zap.String("email", mail.To))
		return err
	}
	m.log.Info("Email sent", zap.String("kind", kind), zap.String("email", mail.To), zap.String("export_id", exportID))
	return nil
}
