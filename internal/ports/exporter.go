package ports

import "learnsnap/internal/domain"

type Exporter interface {
	Format() string
	Extension() string
	Export(s *domain.Snapshot) ([]byte, error)
}
