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

// LeaderboardStore implements storage.LeaderboardStore using DynamoDB.
// The table is keyed by Wallet; PutItem gives last-write-wins upserts.
type LeaderboardStore struct {
	client *Client
	table  string
}

// NewLeaderboardStore creates a new LeaderboardStore for the given table.
func NewLeaderboardStore(client *Client, table string) *LeaderboardStore {
	return &LeaderboardStore{client: client, table: table}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// Put upserts an entry. Last write wins.
func (s *LeaderboardStore) Put(ctx context.Context, e *domain.LeaderboardEntry) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.client.API.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]*dynamodb.AttributeValue{
			"Wallet":     {S: aws.String(e.Wallet)},
			"PnLUSD":     {N: aws.String(strconv.FormatFloat(e.PnLUSD, 'f', -1, 64))},
			"TradeCount": {N: aws.String(strconv.Itoa(e.TradeCount))},
			"UpdatedAt":  {N: aws.String(strconv.FormatInt(e.UpdatedAt, 10))},
		},
	})
	if err != nil {
		return fmt.Errorf("put leaderboard entry: %w", err)
	}
	return nil
}

// Get retrieves the entry for a wallet. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Get(ctx context.Context, wallet string) (*domain.LeaderboardEntry, error) {
	out, err := s.client.API.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"Wallet": {S: aws.String(wallet)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get leaderboard entry: %w", err)
	}
	if out.Item == nil {
		return nil, storage.ErrNotFound
	}

	return parseLeaderboardItem(out.Item)
}

// ScanAll retrieves all entries ordered by PnL descending. DynamoDB scans
// are unordered, so sorting happens client-side.
func (s *LeaderboardStore) ScanAll(ctx context.Context) ([]*domain.LeaderboardEntry, error) {
	var entries []*domain.LeaderboardEntry

	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	err := s.client.API.ScanPagesWithContext(ctx, input,
		func(page *dynamodb.ScanOutput, _ bool) bool {
			for _, item := range page.Items {
				e, err := parseLeaderboardItem(item)
				if err != nil {
					continue
				}
				entries = append(entries, e)
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PnLUSD != entries[j].PnLUSD {
			return entries[i].PnLUSD > entries[j].PnLUSD
		}
		return entries[i].Wallet < entries[j].Wallet
	})

	return entries, nil
}

func parseLeaderboardItem(item map[string]*dynamodb.AttributeValue) (*domain.LeaderboardEntry, error) {
	e := &domain.LeaderboardEntry{}

	if v := item["Wallet"]; v != nil && v.S != nil {
		e.Wallet = *v.S
	}
	if e.Wallet == "" {
		return nil, storage.ErrInvalidInput
	}

	var err error
	if v := item["PnLUSD"]; v != nil && v.N != nil {
		if e.PnLUSD, err = strconv.ParseFloat(*v.N, 64); err != nil {
			return nil, fmt.Errorf("parse PnLUSD: %w", err)
		}
	}
	if v := item["TradeCount"]; v != nil && v.N != nil {
		if e.TradeCount, err = strconv.Atoi(*v.N); err != nil {
			return nil, fmt.Errorf("parse TradeCount: %w", err)
		}
	}
	if v := item["UpdatedAt"]; v != nil && v.N != nil {
		if e.UpdatedAt, err = strconv.ParseInt(*v.N, 10, 64); err != nil {
			return nil, fmt.Errorf("parse UpdatedAt: %w", err)
		}
	}

	return e, nil
}
