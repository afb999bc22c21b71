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
	"github.com/findoctor/clinic-api/internal/domain"
)

// CustomerRepo provides typed DynamoDB operations for the customers table.
// The customer item is the aggregate root for both the animal sub-records
// and the device-token set.
type CustomerRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCustomerRepo(client *dynamodb.Client, tableName string) *CustomerRepo {
	return &CustomerRepo{client: client, tableName: tableName}
}

func (r *CustomerRepo) Put(ctx context.Context, c *domain.Customer) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CustomerRepo) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("customer_id", customerID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	var c domain.Customer
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetMany fetches customers by id via BatchGetItem (chunked at the 100-key
// API limit). Missing ids are silently skipped, matching the `$in` lookup
// semantics the callers expect.
func (r *CustomerRepo) GetMany(ctx context.Context, customerIDs []string) ([]domain.Customer, error) {
	var customers []domain.Customer
	for start := 0; start < len(customerIDs); start += 100 {
		end := start + 100
		if end > len(customerIDs) {
			end = len(customerIDs)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		seen := make(map[string]struct{}, end-start)
		for _, id := range customerIDs[start:end] {
			if _, dup := seen[id]; dup {
				continue // BatchGetItem rejects duplicate keys
			}
			seen[id] = struct{}{}
			keys = append(keys, strKey("customer_id", id))
		}
		if len(keys) == 0 {
			continue
		}
		req := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys},
		}
		for len(req) > 0 {
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: req})
			if err != nil {
				return nil, err
			}
			var batch []domain.Customer
			if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &batch); err != nil {
				return nil, err
			}
			customers = append(customers, batch...)
			req = out.UnprocessedKeys
		}
	}
	return customers, nil
}

// Scan returns every customer. Unbounded by design: the recipient resolver
// materializes full target sets.
func (r *CustomerRepo) Scan(ctx context.Context) ([]domain.Customer, error) {
	return r.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
}

// ScanActive returns customers with is_active = true.
func (r *CustomerRepo) ScanActive(ctx context.Context) ([]domain.Customer, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("is_active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
}

// ScanByAnimalType returns customers owning at least one animal of the given
// type, via the derived animal_types set.
func (r *CustomerRepo) ScanByAnimalType(ctx context.Context, animalType string) ([]domain.Customer, error) {
	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("contains(animal_types, :t)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: animalType},
		},
	})
}

func (r *CustomerRepo) scan(ctx context.Context, input *dynamodb.ScanInput) ([]domain.Customer, error) {
	var customers []domain.Customer
	p := dynamodb.NewScanPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Customer
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, err
		}
		customers = append(customers, batch...)
	}
	return customers, nil
}

func (r *CustomerRepo) Count(ctx context.Context) (int, error) {
	return r.count(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Select:    types.SelectCount,
	})
}

func (r *CustomerRepo) CountActive(ctx context.Context) (int, error) {
	return r.count(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		Select:           types.SelectCount,
		FilterExpression: aws.String("is_active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
}

func (r *CustomerRepo) count(ctx context.Context, input *dynamodb.ScanInput) (int, error) {
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

func (r *CustomerRepo) Update(ctx context.Context, customerID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("customer_id", customerID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(customer_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *CustomerRepo) SetActive(ctx context.Context, customerID string, active bool) error {
	return r.Update(ctx, customerID, map[string]interface{}{fieldIsActive: active})
}

func (r *CustomerRepo) Delete(ctx context.Context, customerID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("customer_id", customerID),
		ConditionExpression: aws.String("attribute_exists(customer_id)"),
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return err
}

// AddDeviceToken appends a token to the customer's token set. The ADD on a
// string set is atomic and deduplicating: concurrent adds of different
// tokens cannot clobber each other, and re-adding an existing token is a
// storage-level no-op.
func (r *CustomerRepo) AddDeviceToken(ctx context.Context, customerID, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("customer_id", customerID),
		UpdateExpression:    aws.String("ADD device_tokens :t SET updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(customer_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   strSet(token),
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return err
}

// RemoveDeviceToken deletes a token from the set. Removing an absent token
// is not an error.
func (r *CustomerRepo) RemoveDeviceToken(ctx context.Context, customerID, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("customer_id", customerID),
		UpdateExpression:    aws.String("DELETE device_tokens :t SET updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(customer_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   strSet(token),
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return err
}

// SetAnimals replaces the animal list and its derived type set in one
// update. An empty type set is REMOVEd instead: DynamoDB rejects empty
// string sets.
func (r *CustomerRepo) SetAnimals(ctx context.Context, customerID string, animals []domain.Animal, animalTypes []string) error {
	animalsAV, err := attributevalue.Marshal(animals)
	if err != nil {
		return fmt.Errorf("marshal animals: %w", err)
	}
	values := map[string]types.AttributeValue{
		":a":   animalsAV,
		":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	expr := "SET animals = :a, updated_at = :now"
	if len(animalTypes) > 0 {
		expr += ", animal_types = :ts"
		values[":ts"] = strSet(animalTypes...)
	} else {
		expr += " REMOVE animal_types"
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("customer_id", customerID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(customer_id)"),
		ExpressionAttributeValues: values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	return err
}

// GetByPhone queries the phone-index GSI, used to reject duplicate phone
// numbers at registration.
func (r *CustomerRepo) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("phone-index"),
		KeyConditionExpression: aws.String("phone = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: phone},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}
	var c domain.Customer
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
