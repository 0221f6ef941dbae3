package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

// ErrParameterNotFound marks a parameter that is not provisioned.
// Callers treat it as "leave the value unset" rather than a failure.
var ErrParameterNotFound = errors.New("parameter not found")

// ParameterSource resolves named deployment parameters, such as the
// DynamoDB table names provisioned by infrastructure tooling.
type ParameterSource interface {
	Parameter(ctx context.Context, name string) (string, error)
}

// EnvSource resolves parameters from environment variables.
type EnvSource struct{}

// Parameter returns the value of the environment variable name.
func (EnvSource) Parameter(_ context.Context, name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("%s: %w", name, ErrParameterNotFound)
	}
	return v, nil
}

// SSMSource resolves parameters from the AWS SSM Parameter Store.
type SSMSource struct {
	api ssmiface.SSMAPI
}

// NewSSMSource creates a parameter source for the given region.
func NewSSMSource(region string) (*SSMSource, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &SSMSource{api: ssm.New(sess)}, nil
}

// NewSSMSourceWithAPI creates a parameter source from an existing client.
func NewSSMSourceWithAPI(api ssmiface.SSMAPI) *SSMSource {
	return &SSMSource{api: api}
}

// Parameter fetches a decrypted parameter value.
func (s *SSMSource) Parameter(ctx context.Context, name string) (string, error) {
	out, err := s.api.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == ssm.ErrCodeParameterNotFound {
			return "", fmt.Errorf("%s: %w", name, ErrParameterNotFound)
		}
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

var (
	_ ParameterSource = EnvSource{}
	_ ParameterSource = (*SSMSource)(nil)
)
