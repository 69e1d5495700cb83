package services

import (
	"log/slog"

	"github.com/dta-platform/assessment-engine/internal/cache"
	"github.com/dta-platform/assessment-engine/internal/events"
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"github.com/dta-platform/assessment-engine/internal/validator"
)

// ServiceManager aggregates all services behind one injection point for
// the handler layer.
type ServiceManager interface {
	Definition() DefinitionService
	Attempt() AttemptService
	Export() ExportService
}

type serviceManager struct {
	definition DefinitionService
	attempt    AttemptService
	export     ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	sessions cache.SessionStore,
	logger *slog.Logger,
	v *validator.Validator,
	remote RemoteValidator,
	publisher events.EventPublisher,
) ServiceManager {
	return &serviceManager{
		definition: NewDefinitionService(repo, logger, v, publisher),
		attempt:    NewAttemptService(repo, sessions, logger, remote, publisher),
		export:     NewExportService(repo, logger),
	}
}

func (m *serviceManager) Definition() DefinitionService {
	return m.definition
}

func (m *serviceManager) Attempt() AttemptService {
	return m.attempt
}

func (m *serviceManager) Export() ExportService {
	return m.export
}
