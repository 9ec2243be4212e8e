package config

import (
	"github.com/go-playground/validator/v10"
)

// ScrapeSettings is the fully merged runtime input for one shard run:
// config file values, environment, and flags resolved into one struct.
type ScrapeSettings struct {
	Input       string `validate:"required"`
	OutputBase  string `validate:"required"`
	Shard       int    `validate:"gte=0,ltfield=TotalShards"`
	TotalShards int    `validate:"min=1"`
	Limit       int    `validate:"gte=0"`
	Resume      bool
}

// Validate validates the ScrapeSettings using the validator.
func (s *ScrapeSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
