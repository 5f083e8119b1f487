package deployer

import (
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/mlopslab/model-deploy-trigger/internal/images"
	"github.com/mlopslab/model-deploy-trigger/internal/locator"
	"github.com/mlopslab/model-deploy-trigger/internal/notifier"
	"github.com/mlopslab/model-deploy-trigger/internal/params"
	"github.com/mlopslab/model-deploy-trigger/internal/types"
)

type SageMakerAPI interface {
	CreateModel(input *sagemaker.CreateModelInput) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(input *sagemaker.CreateEndpointConfigInput) (*sagemaker.CreateEndpointConfigOutput, error)
	CreateEndpoint(input *sagemaker.CreateEndpointInput) (*sagemaker.CreateEndpointOutput, error)
}

// TestDataLocator discovers the test data recorded against a training job.
type TestDataLocator interface {
	TestDataLocation(trainingJobName string) (types.TestDataLocation, error)
}

// Notifier dispatches an evaluation request for a newly deployed endpoint.
type Notifier interface {
	Notify(endpointName string, testData types.TestDataLocation, queueName string) error
}

// ProvisioningError indicates SageMaker rejected a create call.
type ProvisioningError struct {
	Step string
	Name string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Step, e.Name, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Deployer provisions a serverless inference endpoint for a model artifact
// and triggers its evaluation.
type Deployer struct {
	smClient SageMakerAPI
	images   images.Resolver
	locator  TestDataLocator
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func New(sess *session.Session) (*Deployer, error) {
	smClient := sagemaker.New(sess)

	cfg, err := ConfigFromEnv(params.NewStore(ssm.New(sess)))
	if err != nil {
		return nil, err
	}

	return &Deployer{
		smClient: smClient,
		images:   images.NewRegistryResolver(),
		locator:  locator.NewLocator(smClient, cfg.Region, cfg.AccountID, nil),
		notifier: notifier.NewNotifier(sqs.New(sess)),
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// timestamp is embedded in every generated resource name to keep names unique
// within the region. Seconds resolution, sortable.
func (d *Deployer) timestamp() string {
	return d.now().UTC().Format("2006-01-02-15-04-05")
}

func (d *Deployer) tags() []*sagemaker.Tag {
	return []*sagemaker.Tag{
		{Key: aws.String("Project"), Value: aws.String("MLOps")},
		{Key: aws.String("Region"), Value: aws.String(d.cfg.Region)},
	}
}

// CreateModel creates a model entity referencing the training output at
// modelDataURL, served by the configured framework container.
func (d *Deployer) CreateModel(modelDataURL string) (types.ModelDescriptor, error) {
	name := fmt.Sprintf("%s-serverless-%s", d.cfg.NamePrefix, d.timestamp())

	image, err := d.images.Resolve(d.cfg.Framework, d.cfg.Region, d.cfg.ImageVersion)
	if err != nil {
		return types.ModelDescriptor{}, &ProvisioningError{Step: "create model", Name: name, Err: err}
	}
	log.Printf("creating model %s with image %s from %s", name, image, modelDataURL)

	out, err := d.smClient.CreateModel(&sagemaker.CreateModelInput{
		ModelName: aws.String(name),
		Containers: []*sagemaker.ContainerDefinition{
			{
				Image:        aws.String(image),
				Mode:         aws.String(sagemaker.ContainerModeSingleModel),
				ModelDataUrl: aws.String(modelDataURL),
				Environment: map[string]*string{
					"SAGEMAKER_CONTAINER_LOG_LEVEL": aws.String("20"),
				},
			},
		},
		ExecutionRoleArn: aws.String(d.cfg.ExecutionRoleARN),
		Tags:             d.tags(),
	})
	if err != nil {
		return types.ModelDescriptor{}, &ProvisioningError{Step: "create model", Name: name, Err: err}
	}

	return types.ModelDescriptor{Name: name, ARN: aws.StringValue(out.ModelArn)}, nil
}

// CreateEndpointConfig creates an endpoint configuration with a single
// serverless production variant hosting modelName.
//
// Serverless variants do not support data capture, so unlike provisioned
// capacity no DataCaptureConfig is attached.
func (d *Deployer) CreateEndpointConfig(modelName string) (types.EndpointConfigDescriptor, error) {
	name := fmt.Sprintf("%s-serverless-epc-%s", d.cfg.NamePrefix, d.timestamp())
	log.Printf("creating endpoint config %s for model %s", name, modelName)

	out, err := d.smClient.CreateEndpointConfig(&sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(name),
		ProductionVariants: []*sagemaker.ProductionVariant{
			{
				VariantName: aws.String(d.cfg.VariantName),
				ModelName:   aws.String(modelName),
				ServerlessConfig: &sagemaker.ProductionVariantServerlessConfig{
					MemorySizeInMB: aws.Int64(d.cfg.MemorySizeInMB),
					MaxConcurrency: aws.Int64(d.cfg.MaxConcurrency),
				},
			},
		},
		Tags: d.tags(),
	})
	if err != nil {
		return types.EndpointConfigDescriptor{}, &ProvisioningError{Step: "create endpoint config", Name: name, Err: err}
	}

	return types.EndpointConfigDescriptor{Name: name, ARN: aws.StringValue(out.EndpointConfigArn)}, nil
}

// CreateEndpoint creates a serverless endpoint backed by endpointConfigName.
// It returns as soon as the platform accepts the request; the endpoint may
// still be creating.
func (d *Deployer) CreateEndpoint(endpointConfigName string) (types.EndpointDescriptor, error) {
	name := fmt.Sprintf("%s-serverless-ep-%s", d.cfg.NamePrefix, d.timestamp())
	log.Printf("creating endpoint %s with config %s", name, endpointConfigName)

	out, err := d.smClient.CreateEndpoint(&sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(name),
		EndpointConfigName: aws.String(endpointConfigName),
		Tags:               d.tags(),
	})
	if err != nil {
		return types.EndpointDescriptor{}, &ProvisioningError{Step: "create endpoint", Name: name, Err: err}
	}

	return types.EndpointDescriptor{Name: name, ARN: aws.StringValue(out.EndpointArn)}, nil
}

// Deploy runs the three provisioning steps in order, aborting on the first
// failure. Resources created before a failure are left in place under their
// generated names; there is no compensating rollback.
func (d *Deployer) Deploy(modelDataURL string) (types.EndpointDescriptor, error) {
	model, err := d.CreateModel(modelDataURL)
	if err != nil {
		return types.EndpointDescriptor{}, err
	}
	log.Printf("created model arn: %s", model.ARN)

	config, err := d.CreateEndpointConfig(model.Name)
	if err != nil {
		return types.EndpointDescriptor{}, err
	}
	log.Printf("created endpoint config arn: %s", config.ARN)

	endpoint, err := d.CreateEndpoint(config.Name)
	if err != nil {
		return types.EndpointDescriptor{}, err
	}
	log.Printf("created serverless endpoint arn: %s", endpoint.ARN)

	return endpoint, nil
}
