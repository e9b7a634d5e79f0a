package repository

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"portfolioreport/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/yuin/goldmark"
)

const defaultEmailSubject = "Portfolio Update"

type SesEmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type emailMessageRepositoryHandler struct {
	sesClient SesEmailSender
	fromEmail string
	toEmail   string
}

// NewEmailMessageRepository sends reports through AWS SES. Both addresses
// must be verified in the region.
func NewEmailMessageRepository(ctx context.Context, region, fromEmail, toEmail string) (MessageRepository, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewEmailMessageRepositoryWithClient(sesv2.NewFromConfig(cfg), fromEmail, toEmail), nil
}

func NewEmailMessageRepositoryWithClient(client SesEmailSender, fromEmail, toEmail string) MessageRepository {
	return &emailMessageRepositoryHandler{
		sesClient: client,
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

// emailSubject uses the report's first line with Markdown emphasis removed.
func emailSubject(text string) string {
	firstLine := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	subject := strings.TrimSpace(strings.Trim(firstLine, "*_📊 "))
	if subject == "" {
		return defaultEmailSubject
	}
	return subject
}

func markdownToHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

func (h *emailMessageRepositoryHandler) SendMessage(ctx context.Context, text string) error {
	body, err := markdownToHTML(text)
	if err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(h.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{h.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(emailSubject(text)),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := h.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	if result.MessageId != nil {
		logger.FromContext(ctx).Infow("email sent", "messageId", *result.MessageId)
	}

	return nil
}
