package backup

import (
	"fmt"
	"time"

	"github.com/Sayam753/SendToS3/internal/config"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
)

// Params are the immutable parameters of one run.
type Params struct {
	Site         string
	Hostname     string
	Bucket       string
	Sleep        time.Duration
	Technologies []Technology
}

// Technology is one monitored directory with its compiled pattern and policy.
type Technology struct {
	Name    string
	Path    string
	Pattern *selector.Pattern
	Policy  retention.Policy
}

// ParamsFromConfig builds run parameters from a validated configuration.
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	p := Params{
		Site:         cfg.Site,
		Hostname:     cfg.Hostname,
		Bucket:       cfg.Bucket,
		Sleep:        cfg.Sleep(),
		Technologies: make([]Technology, 0, len(cfg.Technologies)),
	}

	for i, t := range cfg.Technologies {
		pattern, err := selector.CompilePattern(t.Pattern)
		if err != nil {
			return Params{}, fmt.Errorf("technologies[%d]: %w", i, err)
		}
		p.Technologies = append(p.Technologies, Technology{
			Name:    t.Name,
			Path:    t.Path,
			Pattern: pattern,
			Policy:  t.Policy(cfg.LookbackDays),
		})
	}

	return p, nil
}
