package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"messageboard/internal/metrics"
	"messageboard/internal/microservices/http-api/models"
)

const (
	attrID        = "id"
	attrRoomID    = "roomId"
	attrTimestamp = "timestamp"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
// *dynamodb.Client satisfies it.
type DynamoAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDynamoDBClient loads the default AWS credential chain for region.
// Retries are disabled: every store failure is reported once.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(region),
		awscfg.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint) // DynamoDB Local
		}
	}), nil
}

type dynamoMessageRepository struct {
	api   DynamoAPI
	table string
	index string
}

func NewDynamoMessageRepository(api DynamoAPI, table, index string) MessageRepository {
	return &dynamoMessageRepository{api: api, table: table, index: index}
}

// DynamoFactory returns a StoreFactory sharing one client across tables.
func DynamoFactory(api DynamoAPI, index string) StoreFactory {
	return func(table string) MessageRepository {
		return NewDynamoMessageRepository(api, table, index)
	}
}

func (r *dynamoMessageRepository) Table() string {
	return r.table
}

func (r *dynamoMessageRepository) Exists(ctx context.Context) (bool, error) {
	defer observe("dynamodb", "describe", time.Now())

	_, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return false, nil
		}
		return false, r.wrap(err)
	}
	return true, nil
}

func (r *dynamoMessageRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	defer observe("dynamodb", "get", time.Now())

	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(id),
	})
	if err != nil {
		return nil, r.wrap(err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var m models.Message
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, fmt.Errorf("%w: decode item %s: %w", ErrStoreUnavailable, id, err)
	}
	return &m, nil
}

func (r *dynamoMessageRepository) Put(ctx context.Context, message *models.Message) error {
	defer observe("dynamodb", "put", time.Now())

	item, err := attributevalue.MarshalMap(message)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", message.ID, err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return r.wrap(err)
	}
	return nil
}

func (r *dynamoMessageRepository) Delete(ctx context.Context, id string) error {
	defer observe("dynamodb", "delete", time.Now())

	_, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(id),
	})
	if err != nil {
		return r.wrap(err)
	}
	return nil
}

// RangeQuery queries the room index and follows LastEvaluatedKey until the
// whole window has been read.
func (r *dynamoMessageRepository) RangeQuery(ctx context.Context, roomID string, start, end int64) ([]models.Message, error) {
	defer observe("dynamodb", "query", time.Now())

	keyCond := expression.Key(attrRoomID).Equal(expression.Value(roomID)).
		And(expression.Key(attrTimestamp).Between(expression.Value(start), expression.Value(end)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build room query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.api, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(r.index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	messages := make([]models.Message, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, r.wrap(err)
		}
		var batch []models.Message
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("%w: decode room %s: %w", ErrStoreUnavailable, roomID, err)
		}
		messages = append(messages, batch...)
	}
	return messages, nil
}

func (r *dynamoMessageRepository) wrap(err error) error {
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, r.table)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: id},
	}
}

func observe(backend, op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
