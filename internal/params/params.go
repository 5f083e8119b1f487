package params

import (
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
)

type SSMAPI interface {
	GetParameter(input *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
}

// Store reads decrypted values from the AWS parameter store.
type Store struct {
	ssmClient SSMAPI
}

func NewStore(ssmClient SSMAPI) *Store {
	return &Store{ssmClient: ssmClient}
}

func (s *Store) Get(name string) (string, error) {
	log.Printf("retrieving %s from parameter store", name)

	out, err := s.ssmClient.GetParameter(&ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %v", name, err)
	}

	return aws.StringValue(out.Parameter.Value), nil
}
