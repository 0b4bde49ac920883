package handlers

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/fixora/fixora-api/models"
	templates "github.com/fixora/fixora-api/templates/html"
)

// sendNewReportEmail emails an organization staff member about a freshly
// submitted report
func sendNewReportEmail(toEmail, toName string, report *models.Report) error {
	subject := fmt.Sprintf("New %s report (%s urgency)", report.Category, report.Urgency)
	body := fmt.Sprintf("A new report was submitted in your area.\n\nCategory: %s\nUrgency: %s\nAddress: %s\n\n%s",
		report.Category, report.Urgency, report.Address, report.Description)

	from := mail.NewEmail("Fixora", "no-reply@fixora.app")
	to := mail.NewEmail(toName, toEmail)
	html := templates.RenderGenericEmail(subject, body)
	msg := mail.NewSingleEmail(from, subject, to, body, html)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	_, err := client.Send(msg)
	return err
}
