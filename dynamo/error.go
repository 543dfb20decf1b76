package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// IsConditionCheckFailure checks if the given error is an aws error that expresses
// a conditional failure exception. It works seamlessly in both single write and
// within a transaction operation.
func IsConditionCheckFailure(err error) bool {
	if err == nil {
		return false
	}
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}

	return false
}

// conditionFailedIndexes returns the positions of the transaction items whose
// condition check failed. Positions align with the order items were submitted.
func conditionFailedIndexes(err error) []int {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	idxs := []int{}
	for i, reason := range tce.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
