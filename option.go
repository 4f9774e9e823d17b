// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olavodias/GitHubAuth/internal/api"
)

// settings holds configuration shared by [AppTokenCache],
// [InstallationTokenStore] and the REST collaborator. Each component
// reads only the fields relevant to it.
type settings struct {
	endpoint    *url.URL          // REST API base URL
	next        http.RoundTripper // next round tripper
	ua          string            // user agent
	lifetime    time.Duration     // app token lifetime
	margin      time.Duration     // renewal margin
	drift       time.Duration     // clock drift compensation
	staleWindow time.Duration     // access token staleness window
	now         func() time.Time  // clock, overridden in tests
}

// newSettings returns settings with package defaults applied.
func newSettings() *settings {
	u, _ := url.Parse(api.DefaultEndpoint)
	return &settings{
		endpoint:    u,
		next:        http.DefaultTransport,
		ua:          api.UAHeaderValue,
		lifetime:    DefaultTokenLifetime,
		margin:      DefaultRenewalMargin,
		drift:       DefaultClockDrift,
		staleWindow: DefaultRenewalMargin,
		now:         time.Now,
	}
}

// apply folds opts into s. Nil options are ignored.
func (s *settings) apply(opts []Option) error {
	var err error
	for i := range opts {
		if opts[i] != nil {
			err = errors.Join(err, opts[i].apply(s))
		}
	}
	return err
}

// Option configures [AppTokenCache], [InstallationTokenStore] or the
// collaborator returned by [NewCollaborator]. Options not relevant to a
// component are accepted and ignored.
type Option interface {
	apply(s *settings) error
}

// funcOption wraps a function applied to settings during construction.
// It implements [Option] interface.
type funcOption struct {
	f func(*settings) error
}

func (opt *funcOption) apply(s *settings) error {
	return opt.f(s)
}

// Options takes a variadic slice of [Option] and returns a single
// [Option] which includes all the given options. This is useful for
// sharing presets. If conflicting options are specified, last one
// specified wins. As a special case, if no options are specified or all
// specified options are nil, this will return nil.
func Options(options ...Option) Option {
	nils := 0
	for i := range options {
		if options[i] == nil {
			nils++
		}
	}
	if len(options) == nils {
		return nil
	}

	return &funcOption{
		f: func(s *settings) error {
			var err error
			for i := range options {
				if options[i] != nil {
					err = errors.Join(err, options[i].apply(s))
				}
			}
			return err
		},
	}
}

// WithEndpoint configures a custom REST API(v3) endpoint for listing
// installations and creating installation access tokens.
//
// When not specified or empty, "https://api.github.com/" is used.
func WithEndpoint(endpoint string) Option {
	if endpoint == "" {
		return nil
	}
	return &funcOption{
		f: func(s *settings) error {
			u, err := url.Parse(endpoint)
			if err != nil {
				return fmt.Errorf("invalid endpoint url: %w", err)
			}
			switch u.Scheme {
			case "http", "https":
			default:
				return fmt.Errorf("invalid url scheme : %s (%s)", u.Scheme, endpoint)
			}

			if u.Fragment != "" || u.RawQuery != "" {
				return fmt.Errorf("endpoint cannot have fragments or queries: %s", endpoint)
			}

			s.endpoint = u
			return nil
		},
	}
}

// WithRoundTripper configures the collaborator to use next as next
// [http.RoundTripper]. This can be used to further customize headers,
// add logging or retries.
func WithRoundTripper(next http.RoundTripper) Option {
	if next == nil {
		return nil
	}
	return &funcOption{
		f: func(s *settings) error {
			s.next = next
			return nil
		},
	}
}

// WithUserAgent configures the user agent header used for API requests.
func WithUserAgent(ua string) Option {
	if strings.TrimSpace(ua) == "" {
		return nil
	}
	return &funcOption{
		f: func(s *settings) error {
			s.ua = ua
			return nil
		},
	}
}

// WithTokenLifetime overrides how long signed app assertions stay valid.
// The GitHub API rejects lifetimes above 10 minutes; raising this only
// makes sense against endpoints with different limits.
func WithTokenLifetime(d time.Duration) Option {
	return &funcOption{
		f: func(s *settings) error {
			if d <= 0 {
				return fmt.Errorf("token lifetime must be positive: %s", d)
			}
			s.lifetime = d
			return nil
		},
	}
}

// WithRenewalMargin overrides how long before expiry a cached credential
// is treated as stale. Applies to both app assertions and installation
// access tokens.
func WithRenewalMargin(d time.Duration) Option {
	return &funcOption{
		f: func(s *settings) error {
			if d <= 0 {
				return fmt.Errorf("renewal margin must be positive: %s", d)
			}
			s.margin = d
			s.staleWindow = d
			return nil
		},
	}
}

// WithClockDrift overrides how far issue times are backdated to tolerate
// clock skew between issuer and verifier.
func WithClockDrift(d time.Duration) Option {
	return &funcOption{
		f: func(s *settings) error {
			if d < 0 {
				return fmt.Errorf("clock drift cannot be negative: %s", d)
			}
			s.drift = d
			return nil
		},
	}
}
