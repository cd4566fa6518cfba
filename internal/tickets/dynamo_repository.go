package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicline/grievance-intake/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoRepository persists tickets to DynamoDB, keyed by upper-cased
// ticket_id with a conditional put enforcing uniqueness.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("tickets: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("tickets: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Insert writes the ticket item, refusing to overwrite an existing ID.
func (r *DynamoRepository) Insert(ctx context.Context, ticket *Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}

	record := *ticket
	record.TicketID = NormalizeTicketID(ticket.TicketID)

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("tickets: failed to marshal ticket: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(ticket_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrDuplicateTicketID
		}
		return fmt.Errorf("tickets: failed to persist ticket: %w", err)
	}

	r.logger.Info("ticket persisted", "ticket_id", record.TicketID, "category", record.Category)
	return nil
}

// GetStatus loads the ticket item and projects its status and summary.
func (r *DynamoRepository) GetStatus(ctx context.Context, ticketID string) (*StatusInfo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"ticket_id": &types.AttributeValueMemberS{Value: NormalizeTicketID(ticketID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tickets: failed to load ticket: %w", err)
	}
	if out.Item == nil {
		return nil, ErrTicketNotFound
	}

	var ticket Ticket
	if err := attributevalue.UnmarshalMap(out.Item, &ticket); err != nil {
		return nil, fmt.Errorf("tickets: failed to decode ticket: %w", err)
	}
	return &StatusInfo{Status: ticket.Status, Summary: ticket.Summary}, nil
}
