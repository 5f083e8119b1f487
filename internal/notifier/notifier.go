package notifier

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/mlopslab/model-deploy-trigger/internal/types"
)

type SQSAPI interface {
	GetQueueUrl(input *sqs.GetQueueUrlInput) (*sqs.GetQueueUrlOutput, error)
	SendMessage(input *sqs.SendMessageInput) (*sqs.SendMessageOutput, error)
}

// NotificationError indicates the evaluation message could not be dispatched.
type NotificationError struct {
	QueueName string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to notify queue %s: %v", e.QueueName, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// Notifier dispatches evaluation requests to the model evaluation queue.
type Notifier struct {
	sqsClient SQSAPI
}

func NewNotifier(sqsClient SQSAPI) *Notifier {
	return &Notifier{sqsClient: sqsClient}
}

// Notify resolves queueName and sends an evaluation message for the endpoint.
// Failures are not retried here; they fail the invocation so the event
// source's redelivery policy can retry the whole pipeline.
func (n *Notifier) Notify(endpointName string, testData types.TestDataLocation, queueName string) error {
	urlOut, err := n.sqsClient.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		return &NotificationError{QueueName: queueName, Err: fmt.Errorf("failed to resolve queue url: %v", err)}
	}

	body, err := json.Marshal(types.EvaluationMessage{
		EndpointName:         endpointName,
		TestDataS3BucketName: testData.Bucket,
		TestDataS3Key:        testData.Key,
	})
	if err != nil {
		return &NotificationError{QueueName: queueName, Err: err}
	}
	log.Printf("sending evaluation message for endpoint %s to queue %s", endpointName, queueName)

	_, err = n.sqsClient.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    urlOut.QueueUrl,
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return &NotificationError{QueueName: queueName, Err: fmt.Errorf("failed to send message: %v", err)}
	}

	return nil
}
