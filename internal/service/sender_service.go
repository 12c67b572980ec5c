package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"petcare/internal/config"
	"petcare/internal/db"
	"petcare/internal/entities"
)

// SenderService delivers booking and reminder notifications over SMS and
// email. All sends are best effort; failures are logged, never propagated
// into the booking flow.
type SenderService struct {
	cfg    config.Config
	twilio *twilio.RestClient
}

func NewSenderService(cfg config.Config) *SenderService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &SenderService{cfg: cfg, twilio: client}
}

func (s *SenderService) SendBookingSMS(booking db.Booking, slotStartsAt *time.Time) {
	var when string
	switch {
	case slotStartsAt != nil:
		when = slotStartsAt.Format("02 Jan 15:04")
	case booking.StartDate != nil:
		when = booking.StartDate.Format("02 Jan 15:04")
	}

	message := fmt.Sprintf("PetCare: your %s booking %s is %s!", booking.Kind, booking.Code, booking.Status)
	if when != "" {
		message += fmt.Sprintf("\nScheduled: %s.", when)
	}
	message += "\nMore details in your email."

	if err := s.sendSMS(booking.UserPhone, message); err != nil {
		log.Printf("booking %s: SMS to %s failed: %v", booking.Code, booking.UserPhone, err)
	}
}

func (s *SenderService) SendBookingEmail(booking db.Booking, slotStartsAt *time.Time) {
	if booking.UserEmail == "" {
		return
	}

	var when string
	switch {
	case slotStartsAt != nil:
		when = slotStartsAt.Format("02 Jan 2006 15:04 MST")
	case booking.StartDate != nil:
		when = booking.StartDate.Format("02 Jan 2006 15:04 MST")
	}

	emailData := entities.BookingEmailData{
		UserName:        booking.UserName,
		BookingCode:     booking.Code,
		Kind:            booking.Kind,
		PetName:         booking.PetName,
		WhenFormatted:   when,
		AmountFormatted: fmt.Sprintf("%.2f %s", float64(booking.Amount)/100, strings.ToUpper(booking.Currency)),
		Status:          booking.Status,
		CurrentYear:     time.Now().Year(),
	}

	subject := fmt.Sprintf("Your PetCare %s booking is %s - Code: %s", booking.Kind, booking.Status, booking.Code)
	plainBody := fmt.Sprintf(
		"Hello %s,\n\nYour %s booking at PetCare is %s.\n\n"+
			"Booking Details:\n"+
			"Booking Code: %s\n"+
			"Pet: %s\n"+
			"Scheduled: %s\n"+
			"Amount: %s\n\n"+
			"Thank you for choosing PetCare.",
		emailData.UserName, emailData.Kind, emailData.Status,
		emailData.BookingCode, emailData.PetName, emailData.WhenFormatted, emailData.AmountFormatted,
	)

	htmlBody := ""
	tmplPath := filepath.Join("internal", "templates", "booking_email.html")
	if tmpl, err := template.ParseFiles(tmplPath); err != nil {
		log.Printf("could not parse booking email template (%s): %v", tmplPath, err)
	} else {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, emailData); err != nil {
			log.Printf("could not execute booking email template for %s: %v", emailData.BookingCode, err)
		} else {
			htmlBody = buf.String()
		}
	}

	go func() {
		if err := s.sendEmail(booking.UserEmail, booking.UserName, subject, plainBody, htmlBody); err != nil {
			log.Printf("booking %s: email to %s failed: %v", booking.Code, booking.UserEmail, err)
		}
	}()
}

// SendRefundNotice tells the customer their payment is coming back because
// the slot was claimed by someone else first.
func (s *SenderService) SendRefundNotice(booking db.Booking) {
	message := fmt.Sprintf(
		"PetCare: the time slot for booking %s was no longer available. "+
			"Your payment is being refunded. Please pick a new slot or contact support.",
		booking.Code)
	if err := s.sendSMS(booking.UserPhone, message); err != nil {
		log.Printf("booking %s: refund notice SMS to %s failed: %v", booking.Code, booking.UserPhone, err)
	}
	if booking.UserEmail != "" {
		subject := fmt.Sprintf("PetCare booking %s: slot unavailable, refund issued", booking.Code)
		go func() {
			if err := s.sendEmail(booking.UserEmail, booking.UserName, subject, message, ""); err != nil {
				log.Printf("booking %s: refund notice email to %s failed: %v", booking.Code, booking.UserEmail, err)
			}
		}()
	}
}

func (s *SenderService) SendVaccinationReminder(userName, phone, email, petName, vaccine, dueDate string) {
	message := fmt.Sprintf("PetCare: %s is due for the %s vaccine on %s. Book a home visit in the app.", petName, vaccine, dueDate)
	if err := s.sendSMS(phone, message); err != nil {
		log.Printf("reminder SMS to %s failed: %v", phone, err)
	}
	if email != "" {
		subject := fmt.Sprintf("Vaccination reminder for %s", petName)
		if err := s.sendEmail(email, userName, subject, message, ""); err != nil {
			log.Printf("reminder email to %s failed: %v", email, err)
		}
	}
}

func (s *SenderService) sendEmail(toEmail, toName, subject, plainBody, htmlBody string) error {
	if s.cfg.SendgridAPIKey == "" || s.cfg.SendgridFromEmail == "" {
		return fmt.Errorf("sendgrid is not configured")
	}

	from := mail.NewEmail(s.cfg.SendgridFromName, s.cfg.SendgridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	client := sendgrid.NewSendClient(s.cfg.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("send email via sendgrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *SenderService) sendSMS(toNumber, body string) error {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAuthToken == "" || s.cfg.TwilioFromNumber == "" {
		return fmt.Errorf("twilio is not configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("destination number %q is not E.164 formatted, SMS may fail", toNumber)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(body)

	_, err := s.twilio.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send SMS: %w", err)
	}
	return nil
}
