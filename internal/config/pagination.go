package config

import "fmt"

// PaginationConfig bounds page sizes accepted by the List/DLQ endpoints.
type PaginationConfig struct {
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE"`
}

func defaultPaginationConfig() PaginationConfig {
	return PaginationConfig{DefaultPageSize: 50, MaxPageSize: 100}
}

// Validate checks that max_page_size never falls below default_page_size.
func (c *PaginationConfig) Validate() error {
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) must be >= DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}
