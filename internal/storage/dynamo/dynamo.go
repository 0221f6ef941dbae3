// Package dynamo provides DynamoDB-backed store implementations for
// deployments that run against AWS instead of Postgres.
package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// Client wraps the DynamoDB API for dependency injection. Tests substitute
// a dynamodbiface fake.
type Client struct {
	API dynamodbiface.DynamoDBAPI
}

// NewClient creates a DynamoDB client for the given region.
func NewClient(region string) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &Client{API: dynamodb.New(sess)}, nil
}

// NewClientWithSession creates a client from an existing session, so one
// session can be shared with the SSM and SNS clients.
func NewClientWithSession(sess *session.Session) *Client {
	return &Client{API: dynamodb.New(sess)}
}
