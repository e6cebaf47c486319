package services

import (
	"context"

	"tally/internal/ledger"
	"tally/internal/log"
)

// SplitService validates and executes in-place entry splits.
type SplitService struct {
	partitioner *ledger.Partitioner
	splitter    *ledger.Splitter
	logger      *log.Logger
}

// NewSplitService creates a split service.
func NewSplitService(partitioner *ledger.Partitioner, splitter *ledger.Splitter, logger *log.Logger) *SplitService {
	return &SplitService{
		partitioner: partitioner,
		splitter:    splitter,
		logger:      logger.WithComponent(log.ComponentSplit),
	}
}

// SplitEntry splits the entry at rowIndex within the named partition.
// The partition name must be an existing partition tab; anything else is
// ErrPartitionNotFound before the window is even read.
func (s *SplitService) SplitEntry(ctx context.Context, partition string, rowIndex int) (ledger.RowRange, error) {
	partitions, err := s.partitioner.Partitions(ctx)
	if err != nil {
		return ledger.RowRange{}, err
	}
	found := false
	for _, p := range partitions {
		if p.Name == partition {
			found = true
			break
		}
	}
	if !found {
		return ledger.RowRange{}, ledger.ErrPartitionNotFound
	}

	rng, err := s.splitter.Split(ctx, partition, rowIndex)
	if err != nil {
		return ledger.RowRange{}, err
	}

	s.logger.InfoContext(ctx, "Split entry",
		log.FieldPartition, partition,
		log.FieldRow, rowIndex,
		"trailing_row", rng.End)
	return rng, nil
}
