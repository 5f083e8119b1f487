package locator

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/mlopslab/model-deploy-trigger/internal/types"
)

// Model artifacts are written to <date>/<segment>/<training-job-name>/output/model.tar.gz.
// The training job name is generated from the training image name and a
// timestamp and is not recorded anywhere else, so it has to be recovered from
// the artifact key itself.
var artifactKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}/[A-Za-z0-9]+/(.+)/output/model\.tar\.gz$`)

type TagsAPI interface {
	ListTags(input *sagemaker.ListTagsInput) (*sagemaker.ListTagsOutput, error)
}

// TagMatcher decides whether a tag key marks the test data location.
type TagMatcher func(key string) bool

// MatchTestingTag is the default matcher, accepting any tag key containing
// "Testing". First matching tag wins, in whatever order SageMaker returns.
func MatchTestingTag(key string) bool {
	return strings.Contains(key, "Testing")
}

// TrainingJobLookupError indicates the tag lookup on a training job failed.
type TrainingJobLookupError struct {
	TrainingJobName string
	Err             error
}

func (e *TrainingJobLookupError) Error() string {
	return fmt.Sprintf("failed to look up tags for training job %s: %v", e.TrainingJobName, e.Err)
}

func (e *TrainingJobLookupError) Unwrap() error {
	return e.Err
}

// Locator recovers training job identities from model artifact keys and
// discovers the associated test data via training job tags.
type Locator struct {
	smClient  TagsAPI
	region    string
	accountID string
	matches   TagMatcher
}

func NewLocator(smClient TagsAPI, region, accountID string, matcher TagMatcher) *Locator {
	if matcher == nil {
		matcher = MatchTestingTag
	}
	return &Locator{
		smClient:  smClient,
		region:    region,
		accountID: accountID,
		matches:   matcher,
	}
}

// LocateTrainingJob derives the training job name from a model artifact
// object key by stripping the date/segment prefix and the artifact suffix.
func LocateTrainingJob(objectKey string) (string, error) {
	m := artifactKeyPattern.FindStringSubmatch(objectKey)
	if m == nil {
		return "", fmt.Errorf("object key %q does not match the model artifact pattern", objectKey)
	}

	return m[1], nil
}

// TestDataLocation returns the test data location recorded as a tag on the
// training job. A missing tag is not an error: evaluation can run in degraded
// mode without test data, so an empty location is returned instead.
func (l *Locator) TestDataLocation(trainingJobName string) (types.TestDataLocation, error) {
	arn := fmt.Sprintf("arn:aws:sagemaker:%s:%s:training-job/%s", l.region, l.accountID, trainingJobName)

	out, err := l.smClient.ListTags(&sagemaker.ListTagsInput{
		ResourceArn: aws.String(arn),
	})
	if err != nil {
		return types.TestDataLocation{}, &TrainingJobLookupError{TrainingJobName: trainingJobName, Err: err}
	}

	for _, tag := range out.Tags {
		if !l.matches(aws.StringValue(tag.Key)) {
			continue
		}
		value := aws.StringValue(tag.Value)
		bucket, key, err := SplitS3URL(value)
		if err != nil {
			// Strict rule: a value that is not a full s3://bucket/key URL
			// yields an empty location rather than a partial guess.
			log.Printf("warning: tag %s has malformed test data location %q: %v", aws.StringValue(tag.Key), value, err)
			return types.TestDataLocation{}, nil
		}
		log.Printf("found testing tag, test data bucket: %s key: %s", bucket, key)

		return types.TestDataLocation{Bucket: bucket, Key: key}, nil
	}

	log.Printf("warning: no tag found on training job %s to determine test data location", trainingJobName)

	return types.TestDataLocation{}, nil
}

// SplitS3URL splits a fully qualified s3://bucket/key URL into its bucket and
// key components.
func SplitS3URL(url string) (bucket string, key string, err error) {
	if !strings.HasPrefix(url, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URL, missing 's3://' prefix")
	}
	trimmed := strings.TrimPrefix(url, "s3://")
	splitPos := strings.Index(trimmed, "/")
	if splitPos == -1 {
		return "", "", fmt.Errorf("invalid S3 URL, no '/' found after bucket name")
	}
	bucket = trimmed[:splitPos]
	key = trimmed[splitPos+1:]
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL, empty bucket or key")
	}
	return bucket, key, nil
}
