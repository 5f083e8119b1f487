package deployer

import (
	"fmt"
	"log"

	"github.com/mlopslab/model-deploy-trigger/internal/event"
	"github.com/mlopslab/model-deploy-trigger/internal/locator"
	"github.com/mlopslab/model-deploy-trigger/internal/types"
)

// HandleLambdaEvent deploys the model artifact announced by an S3
// object-created notification and triggers its evaluation.
func (d *Deployer) HandleLambdaEvent(evt event.S3ObjectCreatedEvent) error {
	record, err := event.Decode(evt)
	if err != nil {
		log.Printf("error decoding event: %v", err)
		return err
	}
	log.Printf("received event: %s on bucket: %s for object: %s", record.EventName, record.Bucket, record.Key)

	return d.deployArtifact(record.Bucket, record.Key)
}

// HandleArtifactURL runs the same pipeline from an s3://bucket/key model
// artifact URL, for invocation outside Lambda.
func (d *Deployer) HandleArtifactURL(url string) error {
	bucket, key, err := locator.SplitS3URL(url)
	if err != nil {
		return fmt.Errorf("failed to parse S3 URL: %v", err)
	}

	return d.deployArtifact(bucket, key)
}

func (d *Deployer) deployArtifact(bucket, key string) error {
	endpoint, err := d.Deploy(fmt.Sprintf("s3://%s/%s", bucket, key))
	if err != nil {
		log.Printf("error provisioning endpoint for s3://%s/%s: %v", bucket, key, err)
		return err
	}

	testData, err := d.testDataFor(key)
	if err != nil {
		log.Printf("error looking up test data for s3://%s/%s: %v", bucket, key, err)
		return err
	}

	if err := d.notifier.Notify(endpoint.Name, testData, d.cfg.EvaluationQueueName); err != nil {
		log.Printf("error notifying evaluation queue for endpoint %s: %v", endpoint.Name, err)
		return err
	}
	log.Printf("message sent to model evaluation queue for endpoint %s", endpoint.Name)

	return nil
}

// testDataFor resolves the test data recorded against the training job that
// produced objectKey. An artifact key the training job cannot be recovered
// from yields an empty location, as does a job with no testing tag; a failed
// tag lookup is fatal and surfaces so the invocation can be redelivered.
func (d *Deployer) testDataFor(objectKey string) (types.TestDataLocation, error) {
	trainingJobName, err := locator.LocateTrainingJob(objectKey)
	if err != nil {
		log.Printf("warning: could not determine training job from object key: %v", err)
		return types.TestDataLocation{}, nil
	}

	return d.locator.TestDataLocation(trainingJobName)
}
