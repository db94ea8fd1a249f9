// Package monitoring wraps the CloudWatch and CloudWatch Logs clients:
// metrics, alarms and dashboards on the first, log groups and streams on the
// second.
package monitoring

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/gurre/awswrap/aws"
)

// AlarmSpec describes a metric alarm. Actions and Dimensions are optional.
type AlarmSpec struct {
	AlarmName          string
	MetricName         string
	Namespace          string
	ComparisonOperator cwtypes.ComparisonOperator
	Threshold          float64
	EvaluationPeriods  int32
	Period             int32
	Statistic          cwtypes.Statistic
	Actions            []string
	Dimensions         []cwtypes.Dimension
}

// Monitoring owns a CloudWatch handle and a CloudWatch Logs handle.
type Monitoring struct {
	metrics aws.CloudWatchClient
	logs    aws.CloudWatchLogsClient
	now     func() time.Time
}

// NewMonitoring creates a Monitoring around both clients.
func NewMonitoring(metrics aws.CloudWatchClient, logs aws.CloudWatchLogsClient) *Monitoring {
	return &Monitoring{
		metrics: metrics,
		logs:    logs,
		now:     time.Now,
	}
}

// PutMetricData publishes one datum. An empty unit publishes as None.
func (m *Monitoring) PutMetricData(
	ctx context.Context,
	namespace, metricName string,
	value float64,
	unit cwtypes.StandardUnit,
	dimensions []cwtypes.Dimension,
) (string, error) {
	if unit == "" {
		unit = cwtypes.StandardUnitNone
	}
	datum := cwtypes.MetricDatum{
		MetricName: sdkaws.String(metricName),
		Value:      sdkaws.Float64(value),
		Unit:       unit,
	}
	if len(dimensions) > 0 {
		datum.Dimensions = dimensions
	}

	_, err := m.metrics.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Metric '%s' published to namespace '%s'.", metricName, namespace), nil
}

// GetMetricStatistics returns the datapoints of a metric in [start, end].
func (m *Monitoring) GetMetricStatistics(
	ctx context.Context,
	namespace, metricName string,
	start, end time.Time,
	period int32,
	statistics []cwtypes.Statistic,
	dimensions []cwtypes.Dimension,
) ([]cwtypes.Datapoint, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  sdkaws.String(namespace),
		MetricName: sdkaws.String(metricName),
		StartTime:  sdkaws.Time(start),
		EndTime:    sdkaws.Time(end),
		Period:     sdkaws.Int32(period),
		Statistics: statistics,
	}
	if len(dimensions) > 0 {
		input.Dimensions = dimensions
	}

	resp, err := m.metrics.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, err
	}
	if resp.Datapoints == nil {
		return []cwtypes.Datapoint{}, nil
	}
	return resp.Datapoints, nil
}

// CreateAlarm creates or replaces a metric alarm.
func (m *Monitoring) CreateAlarm(ctx context.Context, spec AlarmSpec) (string, error) {
	input := &cloudwatch.PutMetricAlarmInput{
		AlarmName:          sdkaws.String(spec.AlarmName),
		MetricName:         sdkaws.String(spec.MetricName),
		Namespace:          sdkaws.String(spec.Namespace),
		ComparisonOperator: spec.ComparisonOperator,
		Threshold:          sdkaws.Float64(spec.Threshold),
		EvaluationPeriods:  sdkaws.Int32(spec.EvaluationPeriods),
		Period:             sdkaws.Int32(spec.Period),
		Statistic:          spec.Statistic,
	}
	if len(spec.Actions) > 0 {
		input.AlarmActions = spec.Actions
	}
	if len(spec.Dimensions) > 0 {
		input.Dimensions = spec.Dimensions
	}

	if _, err := m.metrics.PutMetricAlarm(ctx, input); err != nil {
		return "", err
	}
	return fmt.Sprintf("Alarm '%s' created successfully.", spec.AlarmName), nil
}

// DeleteAlarm deletes a metric alarm.
func (m *Monitoring) DeleteAlarm(ctx context.Context, alarmName string) (string, error) {
	_, err := m.metrics.DeleteAlarms(ctx, &cloudwatch.DeleteAlarmsInput{
		AlarmNames: []string{alarmName},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Alarm '%s' deleted successfully.", alarmName), nil
}

// ListAlarms returns the names of the metric alarms.
func (m *Monitoring) ListAlarms(ctx context.Context) ([]string, error) {
	resp, err := m.metrics.DescribeAlarms(ctx, &cloudwatch.DescribeAlarmsInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.MetricAlarms))
	for _, a := range resp.MetricAlarms {
		names = append(names, sdkaws.ToString(a.AlarmName))
	}
	return names, nil
}

// CreateLogGroup creates a log group.
func (m *Monitoring) CreateLogGroup(ctx context.Context, group string) (string, error) {
	_, err := m.logs.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: sdkaws.String(group),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Log group '%s' created successfully.", group), nil
}

// DeleteLogGroup deletes a log group and its streams.
func (m *Monitoring) DeleteLogGroup(ctx context.Context, group string) (string, error) {
	_, err := m.logs.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
		LogGroupName: sdkaws.String(group),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Log group '%s' deleted successfully.", group), nil
}

// CreateLogStream creates stream inside group.
func (m *Monitoring) CreateLogStream(ctx context.Context, group, stream string) (string, error) {
	_, err := m.logs.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(stream),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Log stream '%s' created in log group '%s'.", stream, group), nil
}

// PutLogEvents publishes messages stamped with the current time.
func (m *Monitoring) PutLogEvents(ctx context.Context, group, stream string, messages []string) (string, error) {
	ts := m.now().UnixMilli()
	events := make([]logstypes.InputLogEvent, 0, len(messages))
	for _, msg := range messages {
		events = append(events, logstypes.InputLogEvent{
			Message:   sdkaws.String(msg),
			Timestamp: sdkaws.Int64(ts),
		})
	}

	_, err := m.logs.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(stream),
		LogEvents:     events,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Published %d log events to stream '%s'.", len(events), stream), nil
}

// GetLogEvents returns the events of a stream. A zero start or end leaves
// that side of the window open.
func (m *Monitoring) GetLogEvents(ctx context.Context, group, stream string, start, end time.Time) ([]logstypes.OutputLogEvent, error) {
	input := &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(stream),
	}
	if !start.IsZero() {
		input.StartTime = sdkaws.Int64(start.UnixMilli())
	}
	if !end.IsZero() {
		input.EndTime = sdkaws.Int64(end.UnixMilli())
	}

	resp, err := m.logs.GetLogEvents(ctx, input)
	if err != nil {
		return nil, err
	}
	if resp.Events == nil {
		return []logstypes.OutputLogEvent{}, nil
	}
	return resp.Events, nil
}

// CreateDashboard creates or replaces a dashboard. body is the dashboard JSON.
func (m *Monitoring) CreateDashboard(ctx context.Context, name, body string) (string, error) {
	_, err := m.metrics.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: sdkaws.String(name),
		DashboardBody: sdkaws.String(body),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Dashboard '%s' created successfully.", name), nil
}

// DeleteDashboard deletes a dashboard.
func (m *Monitoring) DeleteDashboard(ctx context.Context, name string) (string, error) {
	_, err := m.metrics.DeleteDashboards(ctx, &cloudwatch.DeleteDashboardsInput{
		DashboardNames: []string{name},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Dashboard '%s' deleted successfully.", name), nil
}

// GetDashboard returns the dashboard body.
func (m *Monitoring) GetDashboard(ctx context.Context, name string) (string, error) {
	resp, err := m.metrics.GetDashboard(ctx, &cloudwatch.GetDashboardInput{
		DashboardName: sdkaws.String(name),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.DashboardBody), nil
}

// ListDashboards returns the names of every dashboard.
func (m *Monitoring) ListDashboards(ctx context.Context) ([]string, error) {
	resp, err := m.metrics.ListDashboards(ctx, &cloudwatch.ListDashboardsInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.DashboardEntries))
	for _, d := range resp.DashboardEntries {
		names = append(names, sdkaws.ToString(d.DashboardName))
	}
	return names, nil
}
