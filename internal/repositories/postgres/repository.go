package postgres

import (
	"github.com/dta-platform/assessment-engine/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	definition repositories.DefinitionRepository
	attempt    repositories.AttemptRepository
}

// NewRepository wires the postgres implementations behind the aggregate
// repository interface.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		definition: NewDefinitionPostgreSQL(db),
		attempt:    NewAttemptPostgreSQL(db),
	}
}

func (r *repository) Definition() repositories.DefinitionRepository {
	return r.definition
}

func (r *repository) Attempt() repositories.AttemptRepository {
	return r.attempt
}
