package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// AWSConfig holds the settings shared by every AWS client the relay builds.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
	// DynamoDBEndpoint points at DynamoDB Local / LocalStack. Empty means AWS.
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT"`
	AccessKey        string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey        string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

// LoadAWSConfig resolves credentials the way the SDK normally does, except
// that a custom endpoint with explicit keys uses static credentials.
func LoadAWSConfig(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.DynamoDBEndpoint != "" && cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewDynamoDBClient builds a DynamoDB client, honoring a custom endpoint.
func NewDynamoDBClient(awsCfg aws.Config, cfg AWSConfig) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}
