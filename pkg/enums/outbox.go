package enums

import "fmt"

// OutboxOperationType identifies what a sync job asks the Brevo gateway to do.
type OutboxOperationType string

const (
	OperationUpsertContact       OutboxOperationType = "upsert_contact"
	OperationUpdateAfterPurchase OutboxOperationType = "update_after_purchase"
)

var validOperationTypes = []OutboxOperationType{
	OperationUpsertContact,
	OperationUpdateAfterPurchase,
}

// IsValid reports whether the value matches a known operation type.
func (o OutboxOperationType) IsValid() bool {
	for _, candidate := range validOperationTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxOperationType converts raw input into OutboxOperationType.
func ParseOutboxOperationType(value string) (OutboxOperationType, error) {
	for _, candidate := range validOperationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid operation type %q", value)
}

// OutboxJobStatus tracks the delivery state of a sync job.
type OutboxJobStatus string

const (
	JobPending OutboxJobStatus = "pending"
	JobSuccess OutboxJobStatus = "success"
	JobError   OutboxJobStatus = "error"
)

var validJobStatuses = []OutboxJobStatus{
	JobPending,
	JobSuccess,
	JobError,
}

// IsValid reports whether the value matches a known job status.
func (s OutboxJobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends a dispatch attempt.
func (s OutboxJobStatus) Terminal() bool {
	return s == JobSuccess || s == JobError
}
