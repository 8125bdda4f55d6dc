package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAWSConfig_StaticCredentialsForLocalEndpoint(t *testing.T) {
	cfg := AWSConfig{
		Region:           "eu-west-1",
		DynamoDBEndpoint: "http://localhost:8000",
		AccessKey:        "local",
		SecretKey:        "local",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", creds.AccessKeyID)

	client := NewDynamoDBClient(awsCfg, cfg)
	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", *client.Options().BaseEndpoint)
}
