package wpsec

import (
	"time"

	"github.com/andyle182810/wpsec/validator"
)

type Option func(*Service)

func WithAPIVersion(version string) Option {
	return func(s *Service) {
		if version != "" {
			s.apiVersion = version
		}
	}
}

// WithSlowThreshold sets the ping response time above which the API is reported slow.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.slowThreshold = threshold
		}
	}
}

func WithValidator(v *validator.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}
