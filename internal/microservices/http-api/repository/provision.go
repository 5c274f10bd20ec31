package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

// DynamoAdminAPI is what table provisioning needs from the DynamoDB client.
type DynamoAdminAPI interface {
	dynamodb.DescribeTableAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// CreateDynamoTable creates a tenant table keyed by id with the room index,
// then waits until it is ACTIVE. An existing table is left untouched.
func CreateDynamoTable(ctx context.Context, api DynamoAdminAPI, table, index string, wait time.Duration) (created bool, err error) {
	_, err = api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrRoomID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrTimestamp), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(index),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(attrRoomID), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(attrTimestamp), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("create table %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, wait); err != nil {
		return true, fmt.Errorf("wait for table %s: %w", table, err)
	}
	return true, nil
}

// CreatePostgresTable creates a tenant table and its room/timestamp index.
func CreatePostgresTable(ctx context.Context, db *gorm.DB, table string) error {
	ident := pgx.Identifier{table}.Sanitize()
	index := pgx.Identifier{table + "_room_ts_idx"}.Sanitize()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           text PRIMARY KEY,
			room_id      text NOT NULL DEFAULT '',
			"timestamp"  bigint NOT NULL,
			sender       text NOT NULL,
			content      text NOT NULL,
			is_corrected boolean NOT NULL DEFAULT false
		)`, ident)).Error; err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		if err := tx.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (room_id, "timestamp")`, index, ident)).Error; err != nil {
			return fmt.Errorf("create index on %s: %w", table, err)
		}
		return nil
	})
}
