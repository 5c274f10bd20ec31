package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const EmailSubject = "New message was created."

// SESAPI is the part of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

func NewSESClient(ctx context.Context, region string) (*sesv2.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(region),
		awscfg.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sesv2.NewFromConfig(cfg), nil
}

// SESNotifier emails an administrator about every created message.
type SESNotifier struct {
	api  SESAPI
	from string
	to   string
}

func NewSESNotifier(api SESAPI, from, to string) *SESNotifier {
	return &SESNotifier{api: api, from: from, to: to}
}

func (n *SESNotifier) Notify(ctx context.Context, e Event) error {
	_, err := n.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{n.to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(EmailSubject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(emailBody(e))},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send for %s: %w", e.MessageID, err)
	}
	return nil
}
