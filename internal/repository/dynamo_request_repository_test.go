package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// fakeDynamo keeps items in memory and pages Scan/Query one item at a time
// so the repository has to follow LastEvaluatedKey.
type fakeDynamo struct {
	items      map[string]map[string]types.AttributeValue
	lastPut    *dynamodb.PutItemInput
	lastQuery  *dynamodb.QueryInput
	scanCalls  int
	queryCalls int
	failWith   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.lastPut = in
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	if _, exists := f.items[id]; exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) sortedIDs(filter func(map[string]types.AttributeValue) bool) []string {
	var ids []string
	for id, item := range f.items {
		if filter == nil || filter(item) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeDynamo) page(ids []string, startKey map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	start := 0
	if startKey != nil {
		last := startKey["id"].(*types.AttributeValueMemberS).Value
		for i, id := range ids {
			if id == last {
				start = i + 1
			}
		}
	}
	if start >= len(ids) {
		return nil, nil
	}
	var next map[string]types.AttributeValue
	if start+1 < len(ids) {
		next = map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: ids[start]}}
	}
	return []map[string]types.AttributeValue{f.items[ids[start]]}, next
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.scanCalls++
	items, next := f.page(f.sortedIDs(nil), in.ExclusiveStartKey)
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: next}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.queryCalls++
	f.lastQuery = in
	want := in.ExpressionAttributeValues[":priorityValue"].(*types.AttributeValueMemberS).Value
	ids := f.sortedIDs(func(item map[string]types.AttributeValue) bool {
		return item["priority"].(*types.AttributeValueMemberS).Value == want
	})
	items, next := f.page(ids, in.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: next}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func TestDynamoRepositoryCreateAndList(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewDynamoRequestRepository(fake, "MaintenanceRequests", "PriorityIndex")
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	priorities := []domain.Priority{domain.PriorityHigh, domain.PriorityLow, domain.PriorityHigh, domain.PriorityMedium}
	for i, p := range priorities {
		req := sampleRequest("id-"+strconv.Itoa(i), p, base.Add(time.Duration(i)*time.Second))
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if got := aws.ToString(fake.lastPut.TableName); got != "MaintenanceRequests" {
		t.Errorf("TableName = %q", got)
	}
	if got := aws.ToString(fake.lastPut.ConditionExpression); got != "attribute_not_exists(id)" {
		t.Errorf("ConditionExpression = %q", got)
	}
	created := fake.lastPut.Item["createdAt"].(*types.AttributeValueMemberS).Value
	if created != "2024-06-01T12:00:03.000Z" {
		t.Errorf("createdAt attribute = %q", created)
	}
	factors, ok := fake.lastPut.Item["analyzedFactors"].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("analyzedFactors stored as %T, want map", fake.lastPut.Item["analyzedFactors"])
	}
	if _, ok := factors.Value["urgencyClassification"]; !ok {
		t.Error("analyzedFactors.urgencyClassification missing")
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List returned %d items, want 4", len(all))
	}
	if fake.scanCalls != 4 {
		t.Errorf("scan calls = %d, want one per page", fake.scanCalls)
	}
	if !all[0].CreatedAt.Equal(base) || all[0].AnalyzedFactors.PriorityScore != 0.95 {
		t.Errorf("decoded item = %+v", all[0])
	}

	high, err := repo.ListByPriority(ctx, domain.PriorityHigh)
	if err != nil {
		t.Fatalf("ListByPriority: %v", err)
	}
	if len(high) != 2 {
		t.Fatalf("ListByPriority returned %d items, want 2", len(high))
	}
	if got := aws.ToString(fake.lastQuery.IndexName); got != "PriorityIndex" {
		t.Errorf("IndexName = %q", got)
	}
	if got := fake.lastQuery.ExpressionAttributeNames["#p"]; got != "priority" {
		t.Errorf("#p = %q", got)
	}
}

func TestDynamoRepositoryDuplicateID(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewDynamoRequestRepository(fake, "t", "idx")
	req := sampleRequest("same", domain.PriorityLow, time.Now())

	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(context.Background(), req)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Create duplicate = %v, want ErrDuplicateID", err)
	}
}

func TestDynamoRepositoryPropagatesErrors(t *testing.T) {
	fake := newFakeDynamo()
	fake.failWith = errors.New("throttled")
	repo := NewDynamoRequestRepository(fake, "t", "idx")
	ctx := context.Background()

	if err := repo.Create(ctx, sampleRequest("x", domain.PriorityLow, time.Now())); err == nil {
		t.Error("Create: expected error")
	}
	if _, err := repo.List(ctx); err == nil {
		t.Error("List: expected error")
	}
	if _, err := repo.ListByPriority(ctx, domain.PriorityLow); err == nil {
		t.Error("ListByPriority: expected error")
	}
	if err := repo.Ping(ctx); err == nil {
		t.Error("Ping: expected error")
	}
}

func TestDynamoRepositoryEmptyTable(t *testing.T) {
	repo := NewDynamoRequestRepository(newFakeDynamo(), "t", "idx")
	all, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty result, got %d", len(all))
	}
}
