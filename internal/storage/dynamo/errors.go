package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// isConditionalCheckFailed reports whether err is a DynamoDB conditional
// write rejection, which maps to a duplicate key for insert-only tables.
func isConditionalCheckFailed(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
	}
	return false
}
