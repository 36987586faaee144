package sendGrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/kunalverma25/flash-sale-backend/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService delivers the order receipt. Checkout calls it
// best-effort after the order has committed.
type EmailService interface {
	SendOrderReceipt(ctx context.Context, to, name string, order *models.Order) error
}

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {
	return &emailService{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

func (e *emailService) SendOrderReceipt(ctx context.Context, to, name string, order *models.Order) error {

	from := mail.NewEmail(e.fromName, e.fromEmail)
	recipient := mail.NewEmail(name, to)

	message := mail.NewV3Mail()
	message.SetFrom(from)

	personalization := mail.NewPersonalization()
	personalization.AddTos(recipient)
	personalization.Subject = fmt.Sprintf("Your flash sale order %s", order.OrderID)
	message.AddPersonalizations(personalization)

	var lines strings.Builder

	fmt.Fprintf(&lines, "Thanks for your order, %s!\n\n", name)

	for _, item := range order.Items {
		fmt.Fprintf(&lines, "%s x%d @ %.2f\n", item.Name, item.Quantity, item.UnitPrice)
	}

	fmt.Fprintf(&lines, "\nSubtotal: %.2f\nTax: %.2f\nTotal: %.2f\n", order.Subtotal, order.Tax, order.Total)

	message.AddContent(mail.NewContent("text/plain", lines.String()))

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}
