package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolver_Resolve(t *testing.T) {
	resolver := NewRegistryResolver()

	tests := []struct {
		name      string
		framework string
		region    string
		version   string
		expectURI string
		expectErr bool
	}{
		{
			name:      "Known framework and region",
			framework: "xgboost",
			region:    "eu-west-2",
			version:   "latest",
			expectURI: "764974769150.dkr.ecr.eu-west-2.amazonaws.com/sagemaker-xgboost:latest",
		},
		{
			name:      "Empty version defaults to latest",
			framework: "xgboost",
			region:    "us-east-1",
			version:   "",
			expectURI: "683313688378.dkr.ecr.us-east-1.amazonaws.com/sagemaker-xgboost:latest",
		},
		{
			name:      "Pinned version",
			framework: "xgboost",
			region:    "eu-west-2",
			version:   "1.7-1",
			expectURI: "764974769150.dkr.ecr.eu-west-2.amazonaws.com/sagemaker-xgboost:1.7-1",
		},
		{
			name:      "Unknown framework",
			framework: "prophet",
			region:    "eu-west-2",
			expectErr: true,
		},
		{
			name:      "Unknown region",
			framework: "xgboost",
			region:    "ap-southeast-4",
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			uri, err := resolver.Resolve(test.framework, test.region, test.version)

			if test.expectErr {
				require.Error(t, err)
				assert.Empty(t, uri)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expectURI, uri)
			}
		})
	}
}
