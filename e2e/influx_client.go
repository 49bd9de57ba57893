package e2e

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient wraps the official InfluxDB v2 client with the few query
// helpers the end-to-end suite needs. The server is expected to be
// provisioned already; the container is started in setup mode.
type InfluxClient struct {
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a query client for the given org and bucket.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		bucket: bucket,
		client: c,
		query:  c.QueryAPI(org),
	}
}

// CountMeasurement returns how many points the measurement collected in
// the given lookback window.
func (c *InfluxClient) CountMeasurement(ctx context.Context, measurement string, since time.Duration) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-%ds) |> filter(fn: (r) => r._measurement == %q)`,
		c.bucket, int(since.Seconds()), measurement)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	count := 0
	for res.Next() {
		count++
	}
	return count, res.Err()
}

// WaitForMeasurement polls until at least one point of the measurement
// exists or the context expires.
func (c *InfluxClient) WaitForMeasurement(ctx context.Context, measurement string) error {
	var lastErr error
	for {
		n, err := c.CountMeasurement(ctx, measurement, time.Hour)
		if err == nil && n > 0 {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("measurement %s: %v: %w", measurement, lastErr, ctx.Err())
			}
			return fmt.Errorf("measurement %s never appeared: %w", measurement, ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
