package directory

// aws.go - production Client on AWS Glue (dev endpoints) and
// SageMaker (notebook tags).  Throttling and 5xx responses are
// absorbed here by the SDK's standard retryer so the reconcilers never
// see them.

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"

	"nbtether/config"
	nberr "nbtether/internal/errors"
)

// maxRetryAttempts matches the legacy daemon's retry budget for
// throttled or failing directory calls.
const maxRetryAttempts = 20

// AWSClient implements Client against Glue and SageMaker.
type AWSClient struct {
	glue        *glue.Client
	sagemaker   *sagemaker.Client
	notebookARN string

	endpointTagKey   string
	connectionTagKey string
}

// NewAWSClient builds the production client.  The Glue endpoint URL is
// taken from the configuration's override or endpoint file; empty
// means the SDK default for the ambient region.
func NewAWSClient(ctx context.Context, cfg *config.Config, notebookARN string) (*AWSClient, error) {
	endpointURL, err := cfg.ResolveDirectoryEndpoint()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), maxRetryAttempts)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	glueClient := glue.NewFromConfig(awsCfg, func(o *glue.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})

	return &AWSClient{
		glue:             glueClient,
		sagemaker:        sagemaker.NewFromConfig(awsCfg),
		notebookARN:      notebookARN,
		endpointTagKey:   cfg.EndpointTagKey,
		connectionTagKey: cfg.ConnectionTagKey,
	}, nil
}

// Describe implements Client.
func (c *AWSClient) Describe(ctx context.Context, name string) (Endpoint, error) {
	out, err := c.glue.GetDevEndpoint(ctx, &glue.GetDevEndpointInput{
		EndpointName: aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return Endpoint{}, nberr.WrapDirectory("describe", name, nberr.ErrEndpointNotFound)
		}
		return Endpoint{}, nberr.WrapDirectory("describe", name, err)
	}

	ep := out.DevEndpoint
	if ep == nil {
		return Endpoint{}, nberr.WrapDirectory("describe", name, nberr.ErrEndpointNotFound)
	}

	result := Endpoint{
		Name:           aws.ToString(ep.EndpointName),
		PrivateAddress: aws.ToString(ep.PrivateAddress),
		PublicAddress:  aws.ToString(ep.PublicAddress),
		UpdateStatus:   UpdateStatus(aws.ToString(ep.LastUpdateStatus)),
		PublicKeys:     append([]string(nil), ep.PublicKeys...),
	}
	// Older endpoints carry a single key in the legacy field.
	if legacy := aws.ToString(ep.PublicKey); legacy != "" {
		result.PublicKeys = append(result.PublicKeys, legacy)
	}
	return result, nil
}

// AddPublicKeys implements Client.
func (c *AWSClient) AddPublicKeys(ctx context.Context, name string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.glue.UpdateDevEndpoint(ctx, &glue.UpdateDevEndpointInput{
		EndpointName:  aws.String(name),
		AddPublicKeys: keys,
	})
	if err != nil {
		return nberr.WrapDirectory("add-keys", name, err)
	}
	return nil
}

// DeletePublicKeys implements Client.
func (c *AWSClient) DeletePublicKeys(ctx context.Context, name string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.glue.UpdateDevEndpoint(ctx, &glue.UpdateDevEndpointInput{
		EndpointName:     aws.String(name),
		DeletePublicKeys: keys,
	})
	if err != nil {
		return nberr.WrapDirectory("delete-keys", name, err)
	}
	return nil
}

// DesiredTarget implements Client.
func (c *AWSClient) DesiredTarget(ctx context.Context) (string, error) {
	var token *string
	for {
		out, err := c.sagemaker.ListTags(ctx, &sagemaker.ListTagsInput{
			ResourceArn: aws.String(c.notebookARN),
			NextToken:   token,
		})
		if err != nil {
			return "", nberr.WrapDirectory("list-tags", c.notebookARN, err)
		}
		for _, tag := range out.Tags {
			if aws.ToString(tag.Key) == c.endpointTagKey {
				return aws.ToString(tag.Value), nil
			}
		}
		if out.NextToken == nil {
			return "", nil
		}
		token = out.NextToken
	}
}

// isNotFound detects a deleted endpoint both through the typed Glue
// error and, for responses that lost the concrete type in middleware,
// through the wire error code.
func isNotFound(err error) bool {
	var notFound *gluetypes.EntityNotFoundException
	if nberr.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return nberr.As(err, &apiErr) && apiErr.ErrorCode() == "EntityNotFoundException"
}

// SetConnectionTag implements Client.
func (c *AWSClient) SetConnectionTag(ctx context.Context, value string) error {
	_, err := c.sagemaker.AddTags(ctx, &sagemaker.AddTagsInput{
		ResourceArn: aws.String(c.notebookARN),
		Tags: []smtypes.Tag{
			{Key: aws.String(c.connectionTagKey), Value: aws.String(value)},
		},
	})
	if err != nil {
		return nberr.WrapDirectory("add-tags", c.notebookARN, err)
	}
	return nil
}
