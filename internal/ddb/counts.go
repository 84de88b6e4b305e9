// Package ddb stores the trending search counters in DynamoDB.
//
// Table layout: partition key "pk" holds the normalized query. Every item
// carries the constant "kind" attribute so a global secondary index keyed
// on (kind, count) can return the top counts in one descending Query.
package ddb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"

	"github.com/abelbrown/cinefind/internal/trending"
)

// KindSearch is the GSI partition value shared by every counter item.
const KindSearch = "search"

// API is the subset of the DynamoDB client used by Counts.
type API interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Record is a counter item as stored in the table.
type Record struct {
	PK        string `dynamodbav:"pk"`
	Kind      string `dynamodbav:"kind"`
	ID        string `dynamodbav:"id"`
	Query     string `dynamodbav:"query"`
	Count     int64  `dynamodbav:"count"`
	MovieID   int64  `dynamodbav:"movie_id"`
	Title     string `dynamodbav:"title"`
	PosterURL string `dynamodbav:"poster_url"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func (r Record) entry() trending.Entry {
	return trending.Entry{
		ID:        r.ID,
		Query:     r.Query,
		Count:     r.Count,
		MovieID:   r.MovieID,
		Title:     r.Title,
		PosterURL: r.PosterURL,
	}
}

// Counts implements trending.Store on a DynamoDB table.
type Counts struct {
	client API
	table  string
	index  string
	now    func() time.Time
}

var _ trending.Store = (*Counts)(nil)

// NewCounts creates a counter store on table, reading the top list from
// the count-sorted index.
func NewCounts(client API, table, index string) *Counts {
	return &Counts{
		client: client,
		table:  table,
		index:  index,
		now:    time.Now,
	}
}

// Increment adds one to the query's counter in a single UpdateItem. The
// movie fields and id are only written when the item is created.
func (c *Counts) Increment(ctx context.Context, hit trending.Hit) error {
	if hit.Query == "" {
		return trending.ErrEmptyQuery
	}

	now := c.now().UTC().Format(time.RFC3339Nano)
	_, err := c.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: hit.Query},
		},
		UpdateExpression: aws.String(
			"ADD #count :one " +
				"SET #kind = :kind, #id = if_not_exists(#id, :id), #query = if_not_exists(#query, :query), " +
				"#movie_id = if_not_exists(#movie_id, :movie_id), #title = if_not_exists(#title, :title), " +
				"#poster_url = if_not_exists(#poster_url, :poster_url), " +
				"#created_at = if_not_exists(#created_at, :now), #updated_at = :now",
		),
		ExpressionAttributeNames: map[string]string{
			"#count":      "count",
			"#kind":       "kind",
			"#id":         "id",
			"#query":      "query",
			"#movie_id":   "movie_id",
			"#title":      "title",
			"#poster_url": "poster_url",
			"#created_at": "created_at",
			"#updated_at": "updated_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":        &types.AttributeValueMemberN{Value: "1"},
			":kind":       &types.AttributeValueMemberS{Value: KindSearch},
			":id":         &types.AttributeValueMemberS{Value: ksuid.New().String()},
			":query":      &types.AttributeValueMemberS{Value: hit.Query},
			":movie_id":   &types.AttributeValueMemberN{Value: strconv.FormatInt(hit.MovieID, 10)},
			":title":      &types.AttributeValueMemberS{Value: hit.Title},
			":poster_url": &types.AttributeValueMemberS{Value: hit.PosterURL},
			":now":        &types.AttributeValueMemberS{Value: now},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "increment %q in %s", hit.Query, c.table)
	}
	return nil
}

// Top returns up to n counters, highest first, in index order for ties.
func (c *Counts) Top(ctx context.Context, n int) ([]trending.Entry, error) {
	if n <= 0 {
		return []trending.Entry{}, nil
	}

	out, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		IndexName:              aws.String(c.index),
		KeyConditionExpression: aws.String("#kind = :kind"),
		ExpressionAttributeNames: map[string]string{
			"#kind": "kind",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind": &types.AttributeValueMemberS{Value: KindSearch},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(n)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "query %s/%s", c.table, c.index)
	}

	var records []Record
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, errors.Wrap(err, "unmarshal counter records")
	}

	entries := make([]trending.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

// Get looks up the counter for a normalized query.
func (c *Counts) Get(ctx context.Context, query string) (trending.Entry, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: query},
		},
	})
	if err != nil {
		return trending.Entry{}, false, errors.Wrapf(err, "get %q from %s", query, c.table)
	}
	if len(out.Item) == 0 {
		return trending.Entry{}, false, nil
	}

	var r Record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return trending.Entry{}, false, errors.Wrap(err, "unmarshal counter record")
	}
	return r.entry(), true, nil
}
