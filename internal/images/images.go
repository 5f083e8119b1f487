package images

import "fmt"

// Resolver maps a framework name and version to a container image reference
// for a given region.
type Resolver interface {
	Resolve(framework string, region string, version string) (string, error)
}

// registryAccounts holds the AWS accounts hosting the public SageMaker
// algorithm containers, per framework and region.
var registryAccounts = map[string]map[string]string{
	"xgboost": {
		"us-east-1":    "683313688378",
		"us-east-2":    "257758044811",
		"us-west-2":    "246618743249",
		"eu-west-1":    "141502667606",
		"eu-west-2":    "764974769150",
		"eu-west-3":    "659782779980",
		"eu-central-1": "492215442770",
	},
}

// RegistryResolver resolves algorithm container images from the public
// SageMaker ECR registries.
type RegistryResolver struct{}

func NewRegistryResolver() *RegistryResolver {
	return &RegistryResolver{}
}

func (r *RegistryResolver) Resolve(framework, region, version string) (string, error) {
	regions, ok := registryAccounts[framework]
	if !ok {
		return "", fmt.Errorf("no container registry known for framework %q", framework)
	}
	account, ok := regions[region]
	if !ok {
		return "", fmt.Errorf("framework %q has no registered container in region %q", framework, region)
	}
	if version == "" {
		version = "latest"
	}

	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/sagemaker-%s:%s", account, region, framework, version), nil
}
