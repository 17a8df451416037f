// Package indicators computes the technical indicators the Predictor agent
// and the market-data enrichment path need: RSI and short-horizon momentum.
// Functions take and return typed values directly — there is no
// map[string]interface{} argument boundary, per the in-process, typed-value
// re-architecture the agent panel follows throughout.
package indicators

import "github.com/rs/zerolog/log"

// Service is a thin namespace for indicator calculations; it holds no state
// today but keeps the door open for future shared configuration (e.g. a
// default period override), matching the teacher's service-struct idiom.
type Service struct{}

// NewService creates an indicator service.
func NewService() *Service {
	log.Debug().Msg("indicator service initialized")
	return &Service{}
}
