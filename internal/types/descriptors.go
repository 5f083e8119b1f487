package types

// ModelDescriptor identifies a model entity created in SageMaker.
type ModelDescriptor struct {
	Name string
	ARN  string
}

// EndpointConfigDescriptor identifies an endpoint configuration created in SageMaker.
type EndpointConfigDescriptor struct {
	Name string
	ARN  string
}

// EndpointDescriptor identifies a serverless endpoint created in SageMaker.
type EndpointDescriptor struct {
	Name string
	ARN  string
}

// TestDataLocation points at the held-out test data of a training job.
// Both fields are empty when no test data could be discovered.
type TestDataLocation struct {
	Bucket string
	Key    string
}

// EvaluationMessage is the body sent to the model evaluation queue.
type EvaluationMessage struct {
	EndpointName         string `json:"endpointName"`
	TestDataS3BucketName string `json:"testDataS3BucketName"`
	TestDataS3Key        string `json:"testDataS3Key"`
}
