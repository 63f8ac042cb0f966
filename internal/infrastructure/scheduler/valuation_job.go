// Package scheduler ejecuta tareas programadas sobre el inventario.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// schedulerActor actor registrado en los eventos emitidos por tareas programadas.
const schedulerActor = "system:scheduler"

// ValuationSource calcula la valorización del inventario a una fecha.
type ValuationSource interface {
	ValuationAsOf(ctx context.Context, at time.Time, productIDs []string, locationID string) (*dto.ValuationReport, error)
}

// ValuationJob publica periódicamente un snapshot de la valorización del inventario.
type ValuationJob struct {
	cron     *cron.Cron
	spec     string
	source   ValuationSource
	notifier *notify.Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewValuationJob crea la tarea. spec usa el formato cron estándar de 5 campos ("0 23 * * *").
func NewValuationJob(spec string, source ValuationSource, notifier *notify.Notifier, log *logger.Logger) *ValuationJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ValuationJob{
		cron:     cron.New(),
		spec:     spec,
		source:   source,
		notifier: notifier,
		log:      log.Component("scheduler"),
		now:      time.Now,
	}
}

// Start registra la tarea y arranca el cron.
func (j *ValuationJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.tick); err != nil {
		return fmt.Errorf("programar valorización %q: %w", j.spec, err)
	}
	j.log.Info().Str("spec", j.spec).Msg("scheduler iniciado")
	j.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que termine la ejecución en curso.
func (j *ValuationJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.log.Info().Msg("scheduler detenido")
}

func (j *ValuationJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		j.log.Error().Err(err).Msg("snapshot de valorización fallido")
	}
}

// RunOnce calcula la valorización actual de todas las ubicaciones y emite valuation.snapshot.
func (j *ValuationJob) RunOnce(ctx context.Context) (*dto.ValuationReport, error) {
	at := j.now()
	report, err := j.source.ValuationAsOf(ctx, at, nil, "")
	if err != nil {
		return nil, fmt.Errorf("valorización a %s: %w", at.Format(time.RFC3339), err)
	}
	j.notifier.Emit(ctx, ports.TopicValuationSnapshot, at.Format(time.RFC3339), schedulerActor, report)
	j.log.Info().Int("lines", len(report.Lines)).Str("total", report.Total.String()).Msg("snapshot de valorización emitido")
	return report, nil
}
