package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/findoctor/clinic-api/internal/domain"
)

// BookingRepo provides typed DynamoDB operations for the bookings table.
type BookingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBookingRepo(client *dynamodb.Client, tableName string) *BookingRepo {
	return &BookingRepo{client: client, tableName: tableName}
}

func (r *BookingRepo) Put(ctx context.Context, b *domain.Booking) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal booking: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("customer_id-index"),
		KeyConditionExpression: aws.String("customer_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: customerID},
		},
	})
	if err != nil {
		return nil, err
	}
	var bookings []domain.Booking
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// DistinctCustomerIDsByBranch queries the branch-index GSI and returns the
// deduplicated set of customer ids with at least one booking in the branch.
// This is the branch half of the recipient resolver's filter.
func (r *BookingRepo) DistinctCustomerIDsByBranch(ctx context.Context, branch string) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("branch-index"),
		KeyConditionExpression: aws.String("branch = :b"),
		ProjectionExpression:   aws.String("customer_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: branch},
		},
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var rows []struct {
			CustomerID string `dynamodbav:"customer_id"`
		}
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if _, ok := seen[row.CustomerID]; ok {
				continue
			}
			seen[row.CustomerID] = struct{}{}
			ids = append(ids, row.CustomerID)
		}
	}
	return ids, nil
}

func (r *BookingRepo) Update(ctx context.Context, bookingID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("booking_id", bookingID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(booking_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("booking not found: %w", domain.ErrNotFound)
	}
	return err
}
