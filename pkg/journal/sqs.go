package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/raywall/fast-service-mock/pkg/cloud"
)

// SQSClient define a interface necessária para o sink (permite Mocking)
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink publica cada entrada como mensagem JSON na fila.
type SQSSink struct {
	client   SQSClient
	queueURL string
}

func NewSQSSink(client SQSClient, queueURL string) *SQSSink {
	return &SQSSink{client: client, queueURL: queueURL}
}

// OpenSQSSink cria o cliente a partir da configuração AWS compartilhada.
func OpenSQSSink(ctx context.Context, region, queueURL string) (*SQSSink, error) {
	cfg, err := cloud.GetAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewSQSSink(sqs.NewFromConfig(cfg), queueURL), nil
}

func (s *SQSSink) Record(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal sqs: entrada não serializável: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"method": {DataType: aws.String("String"), StringValue: aws.String(e.Method)},
			"status": {DataType: aws.String("Number"), StringValue: aws.String(strconv.Itoa(e.Status))},
		},
	})
	if err != nil {
		return fmt.Errorf("journal sqs: falha ao publicar em %s: %w", s.queueURL, err)
	}
	return nil
}
