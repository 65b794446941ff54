package sns

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/lojaviva/checkout/internal/domain"
)

// Client publishes order-status events to an SNS topic so downstream
// consumers (fulfillment, notifications) react to reconciled payments.
type Client struct {
	snsClient *sns.Client
	topicARN  string
}

func NewClient(cfg aws.Config, topicARN string) *Client {
	return &Client{
		snsClient: sns.NewFromConfig(cfg),
		topicARN:  topicARN,
	}
}

func (c *Client) PublishStatusChanged(ctx context.Context, event domain.OrderStatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = c.snsClient.Publish(ctx, &sns.PublishInput{
		Message:  aws.String(string(payload)),
		TopicArn: aws.String(c.topicARN),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String("order_status_changed"),
			},
			"gateway": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.GatewayName),
			},
		},
	})

	return err
}
