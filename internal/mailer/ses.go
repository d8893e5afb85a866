package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/transsahel/colis-tracker/internal/config"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
)

// SESTransport delivers mail through AWS SES using the SDK v2.
type SESTransport struct {
	client *sesv2.Client
	region string
}

// NewSESTransport creates an SES transport from static credentials.
func NewSESTransport(ctx context.Context, cfg appconfig.SESConfig) (*SESTransport, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("ses: access key and secret key are required")
	}

	region := cfg.Region
	if region == "" {
		region = "ca-central-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SESTransport{
		client: sesv2.NewFromConfig(awsCfg),
		region: region,
	}, nil
}

// Send delivers one email. Provider failures land in the outcome, never in
// a returned error, so the notifier's retry loop can classify them.
func (t *SESTransport) Send(ctx context.Context, msg *Message) *SendOutcome {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.HTML != "" {
		input.Content.Simple.Body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		logger.Warn("SES send failed", "recipient", msg.To, "error", err.Error())
		return Failure(err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Debug("SES send accepted", "recipient", msg.To, "message_id", messageID)

	return &SendOutcome{OK: true, MessageID: messageID}
}
