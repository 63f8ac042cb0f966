package accounting

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// sagaStep paso de una saga: do aplica el efecto y undo lo compensa.
// undo puede ser nil para pasos sin efecto que revertir.
type sagaStep struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// saga ejecuta pasos en orden; ante el primer fallo compensa los ya aplicados en orden inverso.
type saga struct {
	name  string
	log   *logger.Logger
	steps []sagaStep
}

func newSaga(name string, log *logger.Logger) *saga {
	return &saga{name: name, log: log}
}

func (s *saga) add(name string, do, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, do: do, undo: undo})
}

func (s *saga) run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.do(ctx); err != nil {
			s.log.Warn().Err(err).Str("saga", s.name).Str("step", step.name).Msg("paso fallido: compensando")
			s.compensate(context.WithoutCancel(ctx), i-1)
			return fmt.Errorf("%s: paso %s: %w", s.name, step.name, err)
		}
	}
	return nil
}

func (s *saga) compensate(ctx context.Context, from int) {
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.undo == nil {
			continue
		}
		if err := step.undo(ctx); err != nil {
			// La compensación no se reintenta: queda registrada para conciliación manual.
			s.log.Error().Err(err).Str("saga", s.name).Str("step", step.name).Msg("compensación fallida")
		}
	}
}
