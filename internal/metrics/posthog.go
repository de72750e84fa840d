package metrics

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/posthog/posthog-go"
)

// PosthogMetricsClient records anonymous product metrics in Posthog.
type PosthogMetricsClient struct {
	posthogClient posthog.Client
	instanceID    string
}

// anonymizeInstance hashes the instance ID so that deployments cannot be
// identified from the metrics stream alone.
func (p *PosthogMetricsClient) anonymizeInstance() string {
	hash := md5.Sum([]byte(p.instanceID))
	return hex.EncodeToString(hash[:])
}

func (p *PosthogMetricsClient) SessionExpired() error {
	return p.posthogClient.Enqueue(posthog.Capture{DistinctId: p.anonymizeInstance(), Event: "session_expired"})
}

func (p *PosthogMetricsClient) DatasetUploaded() error {
	return p.posthogClient.Enqueue(posthog.Capture{DistinctId: p.anonymizeInstance(), Event: "dataset_uploaded"})
}

func (p *PosthogMetricsClient) Close() {
	p.posthogClient.Close()
}

func NewPosthogClient(apiKey string, host string, environment string, instanceID string) (*PosthogMetricsClient, error) {
	client, err := posthog.NewWithConfig(
		apiKey,
		posthog.Config{
			Endpoint:               host,
			DefaultEventProperties: posthog.Properties{"environment": environment},
		},
	)
	if err != nil {
		return &PosthogMetricsClient{}, err
	}

	return &PosthogMetricsClient{posthogClient: client, instanceID: instanceID}, nil
}
