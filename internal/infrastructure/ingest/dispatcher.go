package ingest

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-gateway/internal/usecase"
	"github.com/DRSN-tech/catalog-gateway/pkg/logger"
)

// Dispatcher рассылает запрос на построение данных всем настроенным получателям (вебхук, Kafka).
// Запрос успешен, если его принял хотя бы один получатель.
type Dispatcher struct {
	targets []namedTarget
	logger  logger.Logger
}

type namedTarget struct {
	name   string
	target usecase.IngestInfra
}

func NewDispatcher(logger logger.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Add регистрирует получателя. nil игнорируется.
func (d *Dispatcher) Add(name string, target usecase.IngestInfra) *Dispatcher {
	if target != nil {
		d.targets = append(d.targets, namedTarget{name: name, target: target})
	}

	return d
}

// Empty сообщает, что не настроено ни одного получателя.
func (d *Dispatcher) Empty() bool {
	return len(d.targets) == 0
}

func (d *Dispatcher) RequestIngest(ctx context.Context, req *usecase.IngestReq) error {
	var (
		errs      []error
		delivered int
	)

	for _, t := range d.targets {
		if err := t.target.RequestIngest(ctx, req); err != nil {
			d.logger.Warnf("Ingest target %s failed for path %s: %v", t.name, req.Path, err)
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return errors.Join(errs...)
	}

	return nil
}
