package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
)

// FilterOptions are the string-form criteria of the filter command,
// parsed into a log.Filter by BuildFilter.
type FilterOptions struct {
	Output    string
	ConnID    string
	AppName   string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Kind      string
	Operation string
	Status    string
}

// BuildFilter parses the options into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		AppName:      opts.AppName,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if opts.Layer != "" {
		l, err := ParseLayerFlag(opts.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := ParseDirectionFlag(opts.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := ParseCategoryFlag(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if opts.Kind != "" {
		k, err := ParseKindFlag(opts.Kind)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Kind = k
	}
	if opts.Operation != "" {
		op, err := ParseOperationFlag(opts.Operation)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Operation = &op
	}
	if opts.Status != "" {
		s, err := ParseStatusFlag(opts.Status)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Status = &s
	}
	return filter, nil
}

// RunFilter copies matching events from one log file into another.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output log: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}

	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to write output log: %w", err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
