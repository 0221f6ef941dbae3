package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// TradeStore implements storage.TradeStore using DynamoDB.
// The table is keyed by TradeID.
type TradeStore struct {
	client *Client
	table  string
}

// NewTradeStore creates a new TradeStore for the given table.
func NewTradeStore(client *Client, table string) *TradeStore {
	return &TradeStore{client: client, table: table}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.client.API.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		ConditionExpression: aws.String("attribute_not_exists(TradeID)"),
		Item: map[string]*dynamodb.AttributeValue{
			"TradeID":   {S: aws.String(t.TradeID)},
			"Timestamp": {N: aws.String(strconv.FormatInt(t.Timestamp, 10))},
			"Price":     {N: aws.String(strconv.FormatFloat(t.Price, 'f', -1, 64))},
			"Volume":    {N: aws.String(strconv.FormatFloat(t.Volume, 'f', -1, 64))},
			"Trader":    {S: aws.String(t.Trader)},
			"Action":    {S: aws.String(string(t.Action))},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("put trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	out, err := s.client.API.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"TradeID": {S: aws.String(tradeID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get trade record: %w", err)
	}
	if out.Item == nil {
		return nil, storage.ErrNotFound
	}

	return parseTradeItem(out.Item)
}

// GetAll retrieves all trades ordered by timestamp ASC. Scans are unordered,
// so sorting happens client-side.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	return s.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(s.table)})
}

// GetByTrader retrieves all trades for one trader, ordered by timestamp ASC.
func (s *TradeStore) GetByTrader(ctx context.Context, trader string) ([]*domain.TradeRecord, error) {
	return s.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("Trader = :trader"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":trader": {S: aws.String(trader)},
		},
	})
}

func (s *TradeStore) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	err := s.client.API.ScanPagesWithContext(ctx, input,
		func(page *dynamodb.ScanOutput, _ bool) bool {
			for _, item := range page.Items {
				t, err := parseTradeItem(item)
				if err != nil {
					continue
				}
				trades = append(trades, t)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("scan trade records: %w", err)
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp != trades[j].Timestamp {
			return trades[i].Timestamp < trades[j].Timestamp
		}
		return trades[i].TradeID < trades[j].TradeID
	})

	return trades, nil
}

func parseTradeItem(item map[string]*dynamodb.AttributeValue) (*domain.TradeRecord, error) {
	t := &domain.TradeRecord{}

	if v := item["TradeID"]; v != nil && v.S != nil {
		t.TradeID = *v.S
	}
	if t.TradeID == "" {
		return nil, storage.ErrInvalidInput
	}
	if v := item["Trader"]; v != nil && v.S != nil {
		t.Trader = *v.S
	}
	if v := item["Action"]; v != nil && v.S != nil {
		t.Action = domain.TradeDirection(*v.S)
	}

	var err error
	if v := item["Timestamp"]; v != nil && v.N != nil {
		if t.Timestamp, err = strconv.ParseInt(*v.N, 10, 64); err != nil {
			return nil, fmt.Errorf("parse Timestamp: %w", err)
		}
	}
	if v := item["Price"]; v != nil && v.N != nil {
		if t.Price, err = strconv.ParseFloat(*v.N, 64); err != nil {
			return nil, fmt.Errorf("parse Price: %w", err)
		}
	}
	if v := item["Volume"]; v != nil && v.N != nil {
		if t.Volume, err = strconv.ParseFloat(*v.N, 64); err != nil {
			return nil, fmt.Errorf("parse Volume: %w", err)
		}
	}

	return t, nil
}
