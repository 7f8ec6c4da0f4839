package linkage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoClient define a interface para operações do DynamoDB (permite Mock)
type DynamoClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type dynamoRecord struct {
	Reference string `dynamodbav:"reference"`
	Body      string `dynamodbav:"body"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// DynamoStore grava referências numa tabela com partition key "reference".
// A gravação é condicional (attribute_not_exists) e o TTL, quando configurado,
// vai no atributo "expires_at".
type DynamoStore struct {
	client DynamoClient
	table  string
	ttl    time.Duration
	now    func() time.Time
}

func NewDynamoStore(client DynamoClient, table string, ttl time.Duration) *DynamoStore {
	return &DynamoStore{client: client, table: table, ttl: ttl, now: time.Now}
}

func (d *DynamoStore) Put(ctx context.Context, body json.RawMessage) (string, error) {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("reference"))).
		Build()
	if err != nil {
		return "", backendError("dynamodb", "expressão condicional", err)
	}

	return issue(ctx, func(ctx context.Context, ref string) (bool, error) {
		rec := dynamoRecord{Reference: ref, Body: string(body)}
		if d.ttl > 0 {
			rec.ExpiresAt = d.now().Add(d.ttl).Unix()
		}
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return false, backendError("dynamodb", "marshal", err)
		}

		_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(d.table),
			Item:                      item,
			ConditionExpression:       cond.Condition(),
			ExpressionAttributeNames:  cond.Names(),
			ExpressionAttributeValues: cond.Values(),
		})
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return false, nil
		}
		if err != nil {
			return false, backendError("dynamodb", "PutItem", err)
		}
		return true, nil
	})
}

func (d *DynamoStore) Get(ctx context.Context, reference string) (json.RawMessage, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"reference": &types.AttributeValueMemberS{Value: reference},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, backendError("dynamodb", "GetItem", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, false, backendError("dynamodb", "unmarshal", err)
	}
	// itens expirados podem continuar visíveis até o DynamoDB removê-los
	if rec.ExpiresAt > 0 && d.now().Unix() >= rec.ExpiresAt {
		return nil, false, nil
	}
	return json.RawMessage(rec.Body), true, nil
}
