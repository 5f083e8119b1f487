package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/mlopslab/model-deploy-trigger/internal/deployer"
	"log"
	"os"
)

func createSession() (*session.Session, error) {
	endpoint := os.Getenv("AWS_ENDPOINT")
	if endpoint != "" {
		// localstack; only control-plane clients are built from this session,
		// so no path-style S3 addressing is needed
		return session.NewSession(&aws.Config{
			Endpoint:   aws.String(endpoint),
			DisableSSL: aws.Bool(true),
		})
	}

	return session.NewSession()
}

func main() {
	sess, err := createSession()
	if err != nil {
		log.Fatalln(err)
	}

	d, err := deployer.New(sess)
	if err != nil {
		log.Fatalln(err)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		log.Println("running in AWS Lambda environment")
		lambda.Start(d.HandleLambdaEvent)
	} else {
		log.Println("running in cli mode")
		if len(os.Args) < 2 {
			log.Fatalln("usage: model-deploy-trigger s3://<bucket>/<date>/<segment>/<training-job>/output/model.tar.gz")
		}
		err := d.HandleArtifactURL(os.Args[1])
		if err != nil {
			log.Fatalln(err)
		}
	}
}
