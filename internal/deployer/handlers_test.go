package deployer

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/mlopslab/model-deploy-trigger/internal/event"
	"github.com/mlopslab/model-deploy-trigger/internal/locator"
	"github.com/mlopslab/model-deploy-trigger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTestDataLocator struct {
	mock.Mock
}

func (m *mockTestDataLocator) TestDataLocation(trainingJobName string) (types.TestDataLocation, error) {
	args := m.Called(trainingJobName)
	return args.Get(0).(types.TestDataLocation), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(endpointName string, testData types.TestDataLocation, queueName string) error {
	args := m.Called(endpointName, testData, queueName)
	return args.Error(0)
}

func exampleEvent(bucket, key string) event.S3ObjectCreatedEvent {
	var record event.S3Record
	record.EventName = "ObjectCreated:Put"
	record.S3.Bucket.Name = bucket
	record.S3.Object.Key = key
	return event.S3ObjectCreatedEvent{Records: []event.S3Record{record}}
}

func acceptAllProvisioning(smClient *mockSageMakerAPI) {
	smClient.On("CreateModel", mock.Anything).Return(&sagemaker.CreateModelOutput{
		ModelArn: aws.String("model-arn"),
	}, nil)
	smClient.On("CreateEndpointConfig", mock.Anything).Return(&sagemaker.CreateEndpointConfigOutput{
		EndpointConfigArn: aws.String("endpoint-config-arn"),
	}, nil)
	smClient.On("CreateEndpoint", mock.Anything).Return(&sagemaker.CreateEndpointOutput{
		EndpointArn: aws.String("endpoint-arn"),
	}, nil)
}

func TestDeployer_HandleLambdaEvent(t *testing.T) {
	const artifactKey = "2024-02-23/output/xgboost-2024-02-23-18-04-06-024/output/model.tar.gz"

	t.Run("Deploys artifact and notifies evaluation queue", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		acceptAllProvisioning(smClient)

		testData := types.TestDataLocation{
			Bucket: "bucket-name",
			Key:    "automl/2024-04-22/training/testing/test_21_51_18.csv",
		}
		testDataLocator := &mockTestDataLocator{}
		testDataLocator.On("TestDataLocation", "xgboost-2024-02-23-18-04-06-024").Return(testData, nil)

		n := &mockNotifier{}
		n.On("Notify", "xgboost-serverless-ep-2024-02-23-18-30-00", testData, "model-evaluation").Return(nil)

		d := newTestDeployer(smClient)
		d.locator = testDataLocator
		d.notifier = n

		require.NoError(t, d.HandleLambdaEvent(exampleEvent("example-bucket", artifactKey)))

		smClient.AssertNumberOfCalls(t, "CreateModel", 1)
		smClient.AssertNumberOfCalls(t, "CreateEndpointConfig", 1)
		smClient.AssertNumberOfCalls(t, "CreateEndpoint", 1)
		n.AssertNumberOfCalls(t, "Notify", 1)
		testDataLocator.AssertExpectations(t)
	})

	t.Run("Malformed event", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}

		d := newTestDeployer(smClient)

		err := d.HandleLambdaEvent(event.S3ObjectCreatedEvent{})
		require.Error(t, err)

		var malformed *event.MalformedEventError
		assert.ErrorAs(t, err, &malformed)
		smClient.AssertNotCalled(t, "CreateModel", mock.Anything)
	})

	t.Run("Tag lookup failure is fatal and skips notification", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		acceptAllProvisioning(smClient)

		testDataLocator := &mockTestDataLocator{}
		testDataLocator.On("TestDataLocation", mock.Anything).Return(types.TestDataLocation{},
			&locator.TrainingJobLookupError{TrainingJobName: "xgboost-2024-02-23-18-04-06-024", Err: fmt.Errorf("access denied")})

		n := &mockNotifier{}

		d := newTestDeployer(smClient)
		d.locator = testDataLocator
		d.notifier = n

		err := d.HandleLambdaEvent(exampleEvent("example-bucket", artifactKey))
		require.Error(t, err)

		var lookupErr *locator.TrainingJobLookupError
		assert.ErrorAs(t, err, &lookupErr)
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unrecognized artifact key still deploys", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		acceptAllProvisioning(smClient)

		testDataLocator := &mockTestDataLocator{}

		n := &mockNotifier{}
		n.On("Notify", mock.Anything, types.TestDataLocation{}, "model-evaluation").Return(nil)

		d := newTestDeployer(smClient)
		d.locator = testDataLocator
		d.notifier = n

		require.NoError(t, d.HandleLambdaEvent(exampleEvent("example-bucket", "unexpected/layout/model.tar.gz")))

		testDataLocator.AssertNotCalled(t, "TestDataLocation", mock.Anything)
		n.AssertExpectations(t)
	})

	t.Run("Notification failure is fatal", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		acceptAllProvisioning(smClient)

		testDataLocator := &mockTestDataLocator{}
		testDataLocator.On("TestDataLocation", mock.Anything).Return(types.TestDataLocation{}, nil)

		n := &mockNotifier{}
		n.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("queue does not exist"))

		d := newTestDeployer(smClient)
		d.locator = testDataLocator
		d.notifier = n

		require.Error(t, d.HandleLambdaEvent(exampleEvent("example-bucket", artifactKey)))
	})

	t.Run("Provisioning failure skips notification", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		smClient.On("CreateModel", mock.Anything).Return(nil, fmt.Errorf("invalid execution role"))

		n := &mockNotifier{}

		d := newTestDeployer(smClient)
		d.notifier = n

		require.Error(t, d.HandleLambdaEvent(exampleEvent("example-bucket", artifactKey)))
		n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeployer_HandleArtifactURL(t *testing.T) {
	t.Run("Valid artifact URL", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}
		acceptAllProvisioning(smClient)

		testDataLocator := &mockTestDataLocator{}
		testDataLocator.On("TestDataLocation", "xgboost-2024-02-23-18-04-06-024").Return(types.TestDataLocation{}, nil)

		n := &mockNotifier{}
		n.On("Notify", mock.Anything, mock.Anything, "model-evaluation").Return(nil)

		d := newTestDeployer(smClient)
		d.locator = testDataLocator
		d.notifier = n

		err := d.HandleArtifactURL("s3://example-bucket/2024-02-23/output/xgboost-2024-02-23-18-04-06-024/output/model.tar.gz")
		require.NoError(t, err)
		smClient.AssertNumberOfCalls(t, "CreateModel", 1)
	})

	t.Run("Invalid URL", func(t *testing.T) {
		smClient := &mockSageMakerAPI{}

		d := newTestDeployer(smClient)

		err := d.HandleArtifactURL("example-bucket/model.tar.gz")
		require.Error(t, err)
		smClient.AssertNotCalled(t, "CreateModel", mock.Anything)
	})
}
