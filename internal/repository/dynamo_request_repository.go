package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// DynamoAPI is the subset of the DynamoDB client used by the repository.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ErrDuplicateID is returned when a ticket id already exists in the table.
var ErrDuplicateID = errors.New("maintenance request id already exists")

// requestItem is the DynamoDB shape of a ticket. The table is keyed on id;
// the priority index is a GSI with priority as partition key.
type requestItem struct {
	ID              string       `dynamodbav:"id"`
	TenantID        string       `dynamodbav:"tenantId"`
	Message         string       `dynamodbav:"message"`
	CreatedAt       string       `dynamodbav:"createdAt"`
	Priority        string       `dynamodbav:"priority"`
	Resolved        bool         `dynamodbav:"resolved"`
	AnalyzedFactors analysisItem `dynamodbav:"analyzedFactors"`
}

type analysisItem struct {
	Keywords              []string `dynamodbav:"keywords"`
	UrgencyClassification string   `dynamodbav:"urgencyClassification"`
	PriorityScore         float64  `dynamodbav:"priorityScore"`
}

type dynamoRequestRepository struct {
	db            DynamoAPI
	table         string
	priorityIndex string
}

// NewDynamoRequestRepository instantiates repository.
func NewDynamoRequestRepository(db DynamoAPI, table, priorityIndex string) MaintenanceRequestRepository {
	return &dynamoRequestRepository{db: db, table: table, priorityIndex: priorityIndex}
}

func (r *dynamoRequestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	item, err := attributevalue.MarshalMap(toItem(req))
	if err != nil {
		return fmt.Errorf("marshal maintenance request: %w", err)
	}
	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("put %s: %w", req.ID, ErrDuplicateID)
		}
		return fmt.Errorf("put %s: %w", req.ID, err)
	}
	return nil
}

func (r *dynamoRequestRepository) List(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	paginator := dynamodb.NewScanPaginator(r.db, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})

	var result []domain.MaintenanceRequest
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		items, err := fromItems(page.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, items...)
	}
	return result, nil
}

func (r *dynamoRequestRepository) ListByPriority(ctx context.Context, priority domain.Priority) ([]domain.MaintenanceRequest, error) {
	paginator := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		IndexName:                aws.String(r.priorityIndex),
		KeyConditionExpression:   aws.String("#p = :priorityValue"),
		ExpressionAttributeNames: map[string]string{"#p": "priority"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":priorityValue": &types.AttributeValueMemberS{Value: string(priority)},
		},
	})

	var result []domain.MaintenanceRequest
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s/%s: %w", r.table, r.priorityIndex, err)
		}
		items, err := fromItems(page.Items)
		if err != nil {
			return nil, err
		}
		result = append(result, items...)
	}
	return result, nil
}

func (r *dynamoRequestRepository) Ping(ctx context.Context) error {
	_, err := r.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

func toItem(req *domain.MaintenanceRequest) requestItem {
	return requestItem{
		ID:        req.ID,
		TenantID:  req.TenantID,
		Message:   req.Message,
		CreatedAt: domain.FormatTimestamp(req.CreatedAt),
		Priority:  string(req.Priority),
		Resolved:  req.Resolved,
		AnalyzedFactors: analysisItem{
			Keywords:              nonNilKeywords(req.AnalyzedFactors.Keywords),
			UrgencyClassification: string(req.AnalyzedFactors.UrgencyClassification),
			PriorityScore:         req.AnalyzedFactors.PriorityScore,
		},
	}
}

func fromItems(items []map[string]types.AttributeValue) ([]domain.MaintenanceRequest, error) {
	var decoded []requestItem
	if err := attributevalue.UnmarshalListOfMaps(items, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal maintenance requests: %w", err)
	}

	result := make([]domain.MaintenanceRequest, 0, len(decoded))
	for _, item := range decoded {
		createdAt, err := domain.ParseTimestamp(item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("maintenance request %s: invalid createdAt %q: %w", item.ID, item.CreatedAt, err)
		}
		result = append(result, domain.MaintenanceRequest{
			ID:        item.ID,
			TenantID:  item.TenantID,
			Message:   item.Message,
			CreatedAt: createdAt,
			Priority:  domain.Priority(item.Priority),
			Resolved:  item.Resolved,
			AnalyzedFactors: domain.AnalysisResult{
				Keywords:              nonNilKeywords(item.AnalyzedFactors.Keywords),
				UrgencyClassification: domain.Priority(item.AnalyzedFactors.UrgencyClassification),
				PriorityScore:         item.AnalyzedFactors.PriorityScore,
			},
		})
	}
	return result, nil
}
