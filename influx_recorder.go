package hatkit

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const defaultInfluxMeasurement = "hatkit"

// InfluxRecorder ships board telemetry to an InfluxDB bucket. The
// exported fields come from the JSON config.
type InfluxRecorder struct {
	Host         string
	Organization string
	Bucket       string
	Measurement  string
	Token        string

	client   influxdb2.Client
	writeApi api.WriteAPIBlocking
	ready    bool
}

func (ir *InfluxRecorder) Setup(ctx context.Context) error {
	ir.client = influxdb2.NewClient(ir.Host, ir.Token)

	running, err := ir.client.Ping(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to ping influx server")
	}
	if !running {
		return errors.Errorf("influx server %s not ready", ir.Host)
	}

	ir.writeApi = ir.client.WriteAPIBlocking(ir.Organization, ir.Bucket)
	ir.ready = true

	return nil
}

func (ir *InfluxRecorder) IsReady() bool {
	return ir.ready
}

func (ir *InfluxRecorder) Close() error {
	if ir.client != nil {
		ir.client.Close()
	}
	ir.ready = false

	return nil
}

func (ir *InfluxRecorder) measurement() string {
	if len(ir.Measurement) > 0 {
		return ir.Measurement
	}

	return defaultInfluxMeasurement
}

// WriteFields records one point with the given tags and fields, stamped
// now.
func (ir *InfluxRecorder) WriteFields(ctx context.Context, tags map[string]string, fields map[string]interface{}) error {
	if !ir.ready {
		return errors.New("influx recorder not ready")
	}

	point := influxdb2.NewPoint(ir.measurement(), tags, fields, time.Now())

	err := ir.writeApi.WritePoint(ctx, point)
	if err != nil {
		return errors.Wrap(err, "failed to write influx point")
	}

	return nil
}
