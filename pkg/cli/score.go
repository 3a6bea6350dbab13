package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	particleFlagName = "particle"
	fileFlagName     = "file"

	particleParts = 3
)

var errRejected = errors.New("request rejected")

func newScoreCmd() *cli.Command {
	return &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score one composite device",
		UsageText: `nanotox score --particle Element1:0.49:60 --particle Element3:250:40
   nanotox score --file request.yaml
   nanotox --format yaml score -p Element2:7.81:100`,
		Action: cmdScore,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    particleFlagName,
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Constituent as ELEMENT:CONCENTRATION:PERCENTAGE (up to %d)", score.MaxConstituents),
			},
			&cli.StringFlag{
				Name:    fileFlagName,
				Aliases: []string{"f"},
				Usage:   "YAML or JSON request file with a constituents list",
			},
		},
	}
}

func cmdScore(_ context.Context, cmd *cli.Command) error {
	req, err := buildRequest(cmd.String(fileFlagName), cmd.StringSlice(particleFlagName))
	if err != nil {
		return err
	}

	engine, _, err := getConfig(cmd).getEngine()
	if err != nil {
		return err
	}

	rep := engine.Evaluate(*req)
	if err := encode(rep); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if !rep.Scored {
		return fmt.Errorf("%w: %d issue(s)", errRejected, len(rep.Errors))
	}
	return nil
}

func buildRequest(file string, particles []string) (*score.Request, error) {
	switch {
	case file != "" && len(particles) > 0:
		return nil, errors.New("use either --file or --particle, not both")
	case file != "":
		return readRequest(file)
	case len(particles) == 0:
		return nil, errors.New("at least one --particle or a --file is required")
	}

	req := &score.Request{Constituents: make([]score.Constituent, 0, len(particles))}
	for _, p := range particles {
		c, err := parseParticle(p)
		if err != nil {
			return nil, err
		}
		req.Constituents = append(req.Constituents, c)
	}
	return req, nil
}

// parseParticle parses ELEMENT:CONCENTRATION:PERCENTAGE; a trailing % on
// the percentage is accepted.
func parseParticle(s string) (score.Constituent, error) {
	var c score.Constituent

	parts := strings.Split(s, ":")
	if len(parts) != particleParts {
		return c, fmt.Errorf("invalid particle %q, expected ELEMENT:CONCENTRATION:PERCENTAGE", s)
	}

	c.Element = strings.TrimSpace(parts[0])
	if c.Element == "" {
		return c, fmt.Errorf("invalid particle %q: element required", s)
	}

	var err error
	if c.Concentration, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return c, fmt.Errorf("invalid particle %q: concentration: %w", s, err)
	}

	pct := strings.TrimSuffix(strings.TrimSpace(parts[2]), "%")
	if c.Percentage, err = strconv.ParseFloat(pct, 64); err != nil {
		return c, fmt.Errorf("invalid particle %q: percentage: %w", s, err)
	}
	return c, nil
}

// readRequest reads a request document. JSON is accepted since it is a
// subset of YAML.
func readRequest(path string) (*score.Request, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var req score.Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding request file %s: %w", path, err)
	}
	return &req, nil
}
