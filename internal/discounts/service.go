// Package discounts implements the Early Risers promotion: a discount code
// issued only when the customer explicitly asks for it during the 8-10 AM
// Pacific window.
package discounts

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimezone  = "America/Los_Angeles"
	defaultStartHour = 8
	defaultEndHour   = 10
	defaultPercent   = 10

	codePrefix = "EARLYRISER"
)

// earlyRisersPattern matches an explicit Early Risers promo request: the
// promotion name and a promo word, in either order.
var earlyRisersPattern = regexp.MustCompile(
	`(?i)\b(early\s*risers?|early-risers?)\b.*\b(code|promo|promotion|discount)\b` +
		`|\b(discount|promo|promotion|code)\b.*\b(early\s*risers?|early-risers?)\b`,
)

// Config tunes the promotion window. Zero values select the defaults.
type Config struct {
	Timezone  string
	StartHour int
	EndHour   int
	Percent   int
}

// Code is one issued discount code.
type Code struct {
	Code            string
	CreatedAt       time.Time
	DiscountPercent int
}

// Service answers promotion-eligibility questions. The window location is
// resolved once at construction; after that every method is a pure function
// of its inputs.
type Service struct {
	location  *time.Location
	startHour int
	endHour   int
	percent   int
}

// NewService builds the discount service. It fails only when the configured
// timezone cannot be resolved.
func NewService(cfg Config) (*Service, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotion timezone %q: %w", tz, err)
	}
	s := &Service{
		location:  loc,
		startHour: cfg.StartHour,
		endHour:   cfg.EndHour,
		percent:   cfg.Percent,
	}
	if s.endHour == 0 {
		s.startHour = defaultStartHour
		s.endHour = defaultEndHour
	}
	if s.percent == 0 {
		s.percent = defaultPercent
	}
	return s, nil
}

// IsPromoWindow reports whether the given instant falls inside the promotion
// window. It depends only on the supplied timestamp: the same instant always
// yields the same answer.
func (s *Service) IsPromoWindow(now time.Time) bool {
	hour := now.In(s.location).Hour()
	return hour >= s.startHour && hour < s.endHour
}

// IsExplicitRequest reports whether the text clearly asks for the Early
// Risers promotion.
func (s *Service) IsExplicitRequest(text string) bool {
	return earlyRisersPattern.MatchString(text)
}

// Percent returns the discount percentage for issued codes.
func (s *Service) Percent() int {
	return s.percent
}

// GenerateCode issues a new discount code in the EARLYRISER-XXXX-XXXX format.
// Each code is unique; the random part comes from a UUID.
func (s *Service) GenerateCode() Code {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return Code{
		Code:            fmt.Sprintf("%s-%s-%s", codePrefix, hex[:4], hex[4:]),
		CreatedAt:       time.Now(),
		DiscountPercent: s.percent,
	}
}
