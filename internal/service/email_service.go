package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"melodyhall/internal/models"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	adminEmail string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. When fromEmail is empty the
// service is disabled and every send becomes a logged no-op.
func NewEmailService(awsRegion, fromEmail, fromName, adminEmail, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		adminEmail: adminEmail,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendTrialRequestNotification notifies the academy admin about a new trial
// lesson request
func (s *EmailService) SendTrialRequestNotification(ctx context.Context, request *models.TrialRequest) error {
	if !s.enabled || s.adminEmail == "" {
		log.Printf("Skipping email send (service disabled): trial request from %s", request.Email)
		return nil
	}

	subject := fmt.Sprintf("New trial lesson request from %s", request.Name)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
	<h2>New Trial Lesson Request</h2>
	<p><strong>Name:</strong> %s</p>
	<p><strong>Email:</strong> %s</p>
	<p><strong>Phone:</strong> %s</p>
	<p><strong>Course:</strong> %s</p>
	<p><strong>Message:</strong></p>
	<p>%s</p>
	<p><a href="%s/admin/trials">Open the trials list</a></p>
</body>
</html>
`, request.Name, request.Email, request.Phone, request.Course, request.Message, s.appBaseURL)

	textBody := fmt.Sprintf(`New trial lesson request

Name: %s
Email: %s
Phone: %s
Course: %s
Message: %s

Open the trials list: %s/admin/trials
`, request.Name, request.Email, request.Phone, request.Course, request.Message, s.appBaseURL)

	return s.sendEmail(ctx, s.adminEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to newly registered students
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	subject := "Welcome to MelodyHall!"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
	<h2>Welcome to MelodyHall!</h2>
	<p>Hi %s,</p>
	<p>Your MelodyHall account is ready. Log your practice sessions, earn
	points for every lesson and see how you rank against the rest of the
	academy.</p>
	<p><a href="%s/login">Sign in to your dashboard</a></p>
	<p>This is an automated email from MelodyHall. Please do not reply.</p>
</body>
</html>
`, toName, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your MelodyHall account is ready. Log your practice sessions, earn points
for every lesson and see how you rank against the rest of the academy.

Sign in: %s/login

---
This is an automated email from MelodyHall. Please do not reply.
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
