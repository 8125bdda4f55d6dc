package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/saransh1220/notify-relay/internal/modules/connection/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// API is the slice of the DynamoDB client the registry needs.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ConnectionRepository stores connections in a table keyed by connectionId
// with a global secondary index on userId.
type ConnectionRepository struct {
	client    API
	table     string
	userIndex string
	now       func() time.Time
}

func NewConnectionRepository(client API, table, userIndex string) *ConnectionRepository {
	return &ConnectionRepository{
		client:    client,
		table:     table,
		userIndex: userIndex,
		now:       time.Now,
	}
}

func (r *ConnectionRepository) Register(ctx context.Context, connectionID, userID string) error {
	item, err := attributevalue.MarshalMap(domain.Connection{
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal connection %s: %w", connectionID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	return nil
}

// Unregister deletes the row. DeleteItem on a missing key succeeds, which is
// what makes it idempotent.
func (r *ConnectionRepository) Unregister(ctx context.Context, connectionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       connectionKey(connectionID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("delete connection %s: table %s missing: %w: %w", connectionID, r.table, errs.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("delete connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *ConnectionRepository) FindByUser(ctx context.Context, userID string) ([]string, error) {
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.userIndex),
		KeyConditionExpression: aws.String("userId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		ProjectionExpression: aws.String("connectionId"),
	})

	ids := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query connections for %s: %w: %w", userID, errs.ErrStoreUnavailable, err)
		}

		var conns []domain.Connection
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &conns); err != nil {
			return nil, fmt.Errorf("unmarshal connections for %s: %w", userID, err)
		}
		for _, c := range conns {
			if c.ConnectionID != "" {
				ids = append(ids, c.ConnectionID)
			}
		}
	}
	return ids, nil
}

func (r *ConnectionRepository) UserOf(ctx context.Context, connectionID string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       connectionKey(connectionID),
	})
	if err != nil {
		return "", fmt.Errorf("get connection %s: %w: %w", connectionID, errs.ErrStoreUnavailable, err)
	}
	if len(out.Item) == 0 {
		return "", errs.ErrConnectionNotFound
	}

	var conn domain.Connection
	if err := attributevalue.UnmarshalMap(out.Item, &conn); err != nil {
		return "", fmt.Errorf("unmarshal connection %s: %w", connectionID, err)
	}
	return conn.UserID, nil
}

func connectionKey(connectionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"connectionId": &types.AttributeValueMemberS{Value: connectionID},
	}
}
