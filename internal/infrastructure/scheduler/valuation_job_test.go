package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

type stubSource struct {
	report *dto.ValuationReport
	err    error
}

func (s stubSource) ValuationAsOf(_ context.Context, at time.Time, _ []string, _ string) (*dto.ValuationReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.report
	r.At = at
	return &r, nil
}

type captureBus struct{ events []ports.Event }

func (b *captureBus) Publish(_ context.Context, ev ports.Event) error {
	b.events = append(b.events, ev)
	return nil
}
func (b *captureBus) Close() error { return nil }

func TestValuationJob_RunOnce(t *testing.T) {
	bus := &captureBus{}
	n := notify.New(nil, bus, nil, logger.Nop())
	src := stubSource{report: &dto.ValuationReport{Total: decimal.NewFromInt(120)}}
	job := scheduler.NewValuationJob("0 23 * * *", src, n, logger.Nop())

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "120", report.Total.String())
	require.Len(t, bus.events, 1)
	assert.Equal(t, ports.TopicValuationSnapshot, bus.events[0].Topic)
	assert.Equal(t, "system:scheduler", bus.events[0].Actor)
}

func TestValuationJob_ErrorNoEmite(t *testing.T) {
	bus := &captureBus{}
	n := notify.New(nil, bus, nil, logger.Nop())
	job := scheduler.NewValuationJob("0 23 * * *", stubSource{err: errors.New("db")}, n, logger.Nop())

	_, err := job.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Empty(t, bus.events)
}

func TestValuationJob_SpecInvalida(t *testing.T) {
	job := scheduler.NewValuationJob("cada hora", stubSource{}, nil, logger.Nop())
	assert.Error(t, job.Start())
}
