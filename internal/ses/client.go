// Package ses owns the Amazon SES v2 client handle and send-quota discovery.
package ses

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shaharia-lab/sesrelay/internal/build"
)

// SupportedRegions lists the regions the client may be configured for.
var SupportedRegions = []string{
	"us-east-1",
	"us-east-2",
	"us-west-2",
	"af-south-1",
	"ap-south-1",
	"ap-northeast-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-northeast-1",
	"ca-central-1",
	"eu-central-1",
	"eu-west-1",
	"eu-west-2",
	"eu-north-1",
	"sa-east-1",
	"us-gov-west-1",
	"us-west-1",
}

// ErrUnsupportedRegion is returned for a region not in SupportedRegions.
var ErrUnsupportedRegion = errors.New("unsupported SES region")

// ErrIncompleteCredentials is returned when only one half of a static key pair is set.
var ErrIncompleteCredentials = errors.New("both access key id and secret access key must be set")

// API is the subset of the SES v2 client used by sesrelay.
type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// Options configures the SES client.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the service base endpoint when set.
	Endpoint string
}

// Validate checks the region and the static credential pair.
func (o Options) Validate() error {
	if !slices.Contains(SupportedRegions, o.Region) {
		return fmt.Errorf("%w: %q", ErrUnsupportedRegion, o.Region)
	}
	if (o.AccessKeyID == "") != (o.SecretAccessKey == "") {
		return ErrIncompleteCredentials
	}
	return nil
}

// Client is the process-wide SES handle. The underlying SDK client is
// created on first use; concurrent first callers share one construction
// and every later call reuses its result.
type Client struct {
	region string
	get    func() (API, error)
}

// New returns a Client that builds the SDK client lazily from opts.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return newLazy(opts.Region, func() (API, error) {
		return newSDKClient(context.Background(), opts)
	}), nil
}

func newLazy(region string, build func() (API, error)) *Client {
	return &Client{region: region, get: sync.OnceValues(build)}
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(region string, api API) *Client {
	return &Client{region: region, get: func() (API, error) { return api, nil }}
}

// Region returns the configured region.
func (c *Client) Region() string { return c.region }

// SendEmail forwards to the SDK client.
func (c *Client) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	api, err := c.get()
	if err != nil {
		return nil, err
	}
	return api.SendEmail(ctx, params, optFns...)
}

// GetAccount forwards to the SDK client.
func (c *Client) GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error) {
	api, err := c.get()
	if err != nil {
		return nil, err
	}
	return api.GetAccount(ctx, params, optFns...)
}

func newSDKClient(ctx context.Context, opts Options) (API, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithAppID(build.AppID()),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return sesv2.NewFromConfig(cfg, func(o *sesv2.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
