package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/findoctor/clinic-api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications
// table. The scan filter expressions mirror domain.Notification's visibility
// predicates; keep both in sync.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// staffVisibilityFilter builds the filter expression for the given staff
// viewer. The caller appends extra conjuncts (unread, status) as needed.
func staffVisibilityFilter(viewerID, role string, values map[string]types.AttributeValue) string {
	values[":true"] = &types.AttributeValueMemberBOOL{Value: true}
	switch role {
	case domain.RoleAdmin:
		return "is_active = :true"
	case domain.RoleDoctor:
		values[":all"] = &types.AttributeValueMemberS{Value: domain.RecipientsAll}
		values[":grp"] = &types.AttributeValueMemberS{Value: domain.RecipientsDoctors}
		values[":id"] = &types.AttributeValueMemberS{Value: viewerID}
		return "is_active = :true AND (recipients IN (:all, :grp) OR contains(specific_recipients, :id) OR created_by = :id)"
	default:
		values[":all"] = &types.AttributeValueMemberS{Value: domain.RecipientsAll}
		values[":grp"] = &types.AttributeValueMemberS{Value: domain.RecipientsStaff}
		values[":id"] = &types.AttributeValueMemberS{Value: viewerID}
		return "is_active = :true AND (recipients IN (:all, :grp) OR contains(specific_recipients, :id))"
	}
}

func customerVisibilityFilter(customerID string, values map[string]types.AttributeValue) string {
	values[":true"] = &types.AttributeValueMemberBOOL{Value: true}
	values[":sent"] = &types.AttributeValueMemberS{Value: domain.StatusSent}
	values[":all"] = &types.AttributeValueMemberS{Value: domain.RecipientsAll}
	values[":grp"] = &types.AttributeValueMemberS{Value: domain.RecipientsCustomers}
	values[":id"] = &types.AttributeValueMemberS{Value: customerID}
	return "is_active = :true AND #st = :sent AND (recipients IN (:all, :grp) OR contains(specific_customers, :id))"
}

// ListForStaff returns every notification visible to the viewer. Search,
// sort and pagination happen in the service layer: DynamoDB cannot order a
// filtered scan.
func (r *NotificationRepo) ListForStaff(ctx context.Context, viewerID, role string) ([]domain.Notification, error) {
	values := map[string]types.AttributeValue{}
	filter := staffVisibilityFilter(viewerID, role, values)
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
	})
}

func (r *NotificationRepo) ListForCustomer(ctx context.Context, customerID string) ([]domain.Notification, error) {
	values := map[string]types.AttributeValue{}
	filter := customerVisibilityFilter(customerID, values)
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  map[string]string{"#st": fieldStatus},
		ExpressionAttributeValues: values,
	})
}

// CountUnreadForStaff counts visible, sent notifications with no read mark
// for the viewer.
func (r *NotificationRepo) CountUnreadForStaff(ctx context.Context, viewerID, role string) (int, error) {
	values := map[string]types.AttributeValue{}
	filter := staffVisibilityFilter(viewerID, role, values)
	values[":sent"] = &types.AttributeValueMemberS{Value: domain.StatusSent}
	if _, ok := values[":id"]; !ok { // admin filter carries no viewer id
		values[":id"] = &types.AttributeValueMemberS{Value: viewerID}
	}
	filter += " AND #st = :sent AND NOT contains(read_by_ids, :id)"
	return r.count(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		Select:                    types.SelectCount,
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  map[string]string{"#st": fieldStatus},
		ExpressionAttributeValues: values,
	})
}

func (r *NotificationRepo) CountUnreadForCustomer(ctx context.Context, customerID string) (int, error) {
	values := map[string]types.AttributeValue{}
	filter := customerVisibilityFilter(customerID, values)
	filter += " AND NOT contains(read_by_ids, :id)"
	return r.count(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		Select:                    types.SelectCount,
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  map[string]string{"#st": fieldStatus},
		ExpressionAttributeValues: values,
	})
}

// MarkAsRead appends a read receipt for the reader unless one exists. The
// whole mutation is a single conditional UpdateItem: the list append and
// the id-set ADD either both happen or neither does, so concurrent readers
// cannot produce duplicate receipts and the first timestamp is preserved.
// Existence of the notification is the caller's concern.
func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID, readerID string, at time.Time) error {
	receipt, err := attributevalue.Marshal([]domain.ReadReceipt{{UserID: readerID, ReadAt: at.UTC()}})
	if err != nil {
		return fmt.Errorf("marshal read receipt: %w", err)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET read_by = list_append(if_not_exists(read_by, :empty), :rcpt) ADD read_by_ids :idset"),
		ConditionExpression: aws.String("attribute_exists(notification_id) AND (attribute_not_exists(read_by_ids) OR NOT contains(read_by_ids, :id))"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rcpt":  receipt,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":idset": strSet(readerID),
			":id":    &types.AttributeValueMemberS{Value: readerID},
		},
	})
	if isConditionalCheckFailed(err) {
		// Already read (or racing reader won) — idempotent no-op.
		return nil
	}
	return err
}

// MarkManyAsRead marks a batch of notifications read for one reader. Each
// mark is independently conditional; a failure on one id does not stop the
// rest.
func (r *NotificationRepo) MarkManyAsRead(ctx context.Context, notificationIDs []string, readerID string, at time.Time) error {
	var firstErr error
	for _, id := range notificationIDs {
		if err := r.MarkAsRead(ctx, id, readerID, at); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *NotificationRepo) SoftDelete(ctx context.Context, notificationID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET is_active = :f"),
		ConditionExpression: aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *NotificationRepo) scan(ctx context.Context, input *dynamodb.ScanInput) ([]domain.Notification, error) {
	var notifications []domain.Notification
	p := dynamodb.NewScanPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, err
		}
		notifications = append(notifications, batch...)
	}
	return notifications, nil
}

func (r *NotificationRepo) count(ctx context.Context, input *dynamodb.ScanInput) (int, error) {
	total := 0
	p := dynamodb.NewScanPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}
